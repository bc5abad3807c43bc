package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// renderSidebar draws the conversation list. The selected conversation
// is bold, the cursor row is highlighted, and each row shows a relative
// date the way the list was last refreshed.
func (m *Model) renderSidebar(width, height int) string {
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Conversations"))
	b.WriteByte('\n')

	convs := m.session.Conversations()
	if len(convs) == 0 {
		b.WriteString(rowDateStyle.Render("No conversations yet"))
		b.WriteByte('\n')
		b.WriteString(rowDateStyle.Render("Press n to start one"))
		return sidebarStyle.Height(height).Render(b.String())
	}

	textWidth := width - 4
	if textWidth < 8 {
		textWidth = 8
	}
	visible := height - 2
	for i, conv := range convs {
		if i >= visible {
			break
		}
		title := conv.Title
		if title == "" {
			title = "Untitled"
		}
		line := runewidth.Truncate(title, textWidth, "…")

		style := rowStyle
		switch {
		case m.focus == focusSidebar && i == m.cursor:
			style = rowCursorStyle
		case conv.ID == m.session.SelectedID():
			style = rowSelectedStyle
		}
		if m.renaming && conv.ID == m.renameChatID {
			b.WriteString(style.Render(m.rename.View()))
		} else {
			b.WriteString(style.Render(line))
			b.WriteByte('\n')
			b.WriteString(rowDateStyle.Render(relativeDate(conv.UpdatedAt, time.Now())))
		}
		b.WriteByte('\n')
	}
	return sidebarStyle.Height(height).Render(b.String())
}

// relativeDate renders an activity timestamp the way a chat list shows
// it: same-day and previous-day get words, everything recent counts
// days, and older entries fall back to the date.
func relativeDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())

	day := func(x time.Time) time.Time {
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, x.Location())
	}
	days := int(day(now).Sub(day(t)).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return strconv.Itoa(days) + " days ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}
