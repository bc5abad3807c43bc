package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	contentHeight := m.transcript.Height + inputHeight

	sidebar := m.renderSidebar(sidebarWidth, contentHeight)
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.transcript.View(),
		m.renderInput(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)

	lines := []string{body, m.renderStatusBar()}
	if toast := m.toastLine(m.width); toast != "" {
		lines = append(lines, toast)
	}
	view := lipgloss.JoinVertical(lipgloss.Left, lines...)

	if action := m.pending.Active(); action != nil {
		prompt := confirmBoxStyle.Render(action.Subject() + "  [y]es / [n]o")
		return lipgloss.JoinVertical(lipgloss.Left, view,
			lipgloss.PlaceHorizontal(m.width, lipgloss.Center, prompt))
	}
	return view
}

func (m *Model) renderInput() string {
	style := inputBoxStyle
	if m.focus == focusInput {
		style = inputBoxFocusStyle
	}
	return style.Render(m.input.View())
}

func (m *Model) renderStatusBar() string {
	parts := []string{"tab focus", "enter send"}
	if m.focus == focusSidebar {
		parts = []string{"tab focus", "enter open", "n new", "r rename", "d delete"}
	}
	if m.session.SendActive() {
		parts = append(parts, m.spin.View()+" receiving")
	}
	parts = append(parts, "ctrl+c quit")
	return statusBarStyle.Render(strings.Join(parts, "  ·  "))
}
