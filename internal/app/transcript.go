package app

import (
	"strings"

	"parley/internal/chat"
	"parley/internal/types"
)

var emptyStateSuggestions = []string{
	"What does patience mean in daily life?",
	"How should I handle a difficult decision?",
	"Explain the idea of gratitude to a beginner.",
}

// renderTranscript produces the viewport content for the selected
// conversation.
func (m *Model) renderTranscript(width int) string {
	msgs := m.session.Messages()
	if len(msgs) == 0 {
		return m.renderEmptyState()
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderMessage(msg, width))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) renderMessage(msg types.Message, width int) string {
	var b strings.Builder
	switch msg.Role {
	case types.RoleUser:
		b.WriteString(userLabelStyle.Render("You"))
		b.WriteByte('\n')
		b.WriteString(msg.Content)
	default:
		b.WriteString(assistantLabelStyle.Render("Assistant"))
		b.WriteByte('\n')
		b.WriteString(m.renderReplyBody(msg.Content, width))
	}
	return b.String()
}

func (m *Model) renderReplyBody(content string, width int) string {
	if content == "" && m.session.SendActive() {
		return m.spin.View() + " thinking"
	}
	if content == chat.FailureNotice {
		return noticeStyle.Render(content)
	}
	if m.markdown {
		return renderMarkdown(content, width)
	}
	return content
}

func (m *Model) renderEmptyState() string {
	var b strings.Builder
	b.WriteString("Ask anything to get started, or pick a suggestion with ↑/↓ and enter.\n\n")
	for i, s := range emptyStateSuggestions {
		if i == m.suggestion {
			b.WriteString(rowCursorStyle.Render("• "+s) + "\n")
		} else {
			b.WriteString("  • " + s + "\n")
		}
	}
	return emptyStateStyle.Render(b.String())
}

// suggestionsActive reports whether the starter suggestions are the
// thing arrow keys should drive.
func (m *Model) suggestionsActive() bool {
	return len(m.session.Messages()) == 0 && m.input.Value() == ""
}

// lastReply returns the most recent completed assistant message, for
// copying.
func (m *Model) lastReply() string {
	msgs := m.session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == types.RoleAssistant && msgs[i].Content != "" {
			return msgs[i].Content
		}
	}
	return ""
}
