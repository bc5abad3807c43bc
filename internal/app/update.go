package app

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/pending"
	"parley/internal/session"
	"parley/internal/textstream"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tickMsg:
		if m.pending.ExpireDue(time.Time(msg)) {
			m.showToast(toastLevelInfo, "Confirmation timed out")
		}
		if !m.toastActive(time.Time(msg)) {
			m.toastText = ""
		}
		cmds = append(cmds, tickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.session.SendActive() {
			cmds = append(cmds, cmd)
		}

	case chatsMsg:
		if err := m.session.ApplyConversations(msg.chats, msg.err); err != nil {
			m.showToast(toastLevelError, "Could not load conversations")
		}
		m.clampCursor()
		m.refreshTranscript()

	case chatCreatedMsg:
		if err := m.session.ApplyCreated(msg.chat, msg.err); err != nil {
			m.showToast(toastLevelError, "Could not create conversation")
		} else {
			m.abandonStream()
			m.cursor = 0
			m.rememberSelection()
			m.loadDraft()
			m.focus = focusInput
			m.input.Focus()
		}
		m.refreshTranscript()

	case historyMsg:
		if err := m.session.ApplyHistory(msg.chatID, msg.messages, msg.err); err != nil {
			m.showToast(toastLevelError, "Could not load history")
		}
		m.refreshTranscript()

	case sendOpenedMsg:
		cmds = append(cmds, m.handleSendOpened(msg))

	case streamChunkMsg:
		cmds = append(cmds, m.handleStreamChunk(msg))

	case chatRenamedMsg:
		if err := m.session.ApplyRenamed(msg.chatID, msg.title, msg.err); err != nil {
			m.showToast(toastLevelError, "Rename failed")
		} else {
			m.showToast(toastLevelInfo, "Renamed")
		}

	case chatDeletedMsg:
		wasSelected := msg.chatID == m.session.SelectedID()
		if err := m.session.ApplyDeleted(msg.chatID, msg.err); err != nil {
			m.showToast(toastLevelError, "Delete failed")
		} else {
			if wasSelected {
				m.abandonStream()
			}
			if m.local != nil {
				_ = m.local.DeleteDraft(msg.chatID)
			}
			m.rememberSelection()
			m.showToast(toastLevelInfo, "Deleted")
		}
		m.clampCursor()
		m.refreshTranscript()
	}

	cmds = m.drainDeferred(cmds)
	if m.quitting {
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.saveDraft()
		m.abandonStream()
		m.quitting = true
		return nil
	}

	if action := m.pending.Active(); action != nil {
		m.handleConfirmKey(action, msg)
		return nil
	}
	if m.renaming {
		return m.handleRenameKey(msg)
	}

	switch msg.String() {
	case "tab":
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	convs := m.session.Conversations()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(convs)-1 {
			m.cursor++
		}
	case "enter":
		if id := m.cursorChatID(); id != "" {
			m.focus = focusInput
			m.input.Focus()
			return m.selectChat(id)
		}
	case "n":
		m.saveDraft()
		return createChatCmd(m.api, m.session.UserID(), "New Chat")
	case "r":
		if id := m.cursorChatID(); id != "" {
			m.beginRename(id)
		}
	case "d":
		return m.requestDelete()
	case "esc":
		m.focus = focusInput
		m.input.Focus()
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	if m.suggestionsActive() {
		switch msg.String() {
		case "up":
			if m.suggestion > 0 {
				m.suggestion--
			} else {
				m.suggestion = len(emptyStateSuggestions) - 1
			}
			m.refreshTranscript()
			return nil
		case "down":
			m.suggestion = (m.suggestion + 1) % len(emptyStateSuggestions)
			m.refreshTranscript()
			return nil
		case "enter":
			if m.suggestion >= 0 && m.suggestion < len(emptyStateSuggestions) {
				m.input.SetValue(emptyStateSuggestions[m.suggestion])
				m.suggestion = -1
				m.refreshTranscript()
				return nil
			}
		}
	}

	switch msg.String() {
	case "enter":
		return m.submitInput()
	case "esc":
		if m.toastText != "" {
			m.toastText = ""
			return nil
		}
		m.focus = focusSidebar
		m.input.Blur()
		return nil
	case "ctrl+y":
		m.copyLastReply()
		return nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// submitInput starts a send for the composed message. While a reply is
// streaming the input stays as typed and nothing is sent.
func (m *Model) submitInput() tea.Cmd {
	send, err := m.session.BeginSend(m.input.Value())
	if err != nil {
		if errors.Is(err, session.ErrSendInFlight) {
			m.showToast(toastLevelWarning, "Wait for the current reply to finish")
		}
		return nil
	}
	m.input.Reset()
	if m.local != nil {
		_ = m.local.SetDraft(send.ChatID, "")
	}
	m.refreshTranscript()
	return tea.Batch(
		openSendCmd(m.api, send.Gen, send.ChatID, m.session.UserID(), send.Text),
		m.spin.Tick,
	)
}

func (m *Model) handleSendOpened(msg sendOpenedMsg) tea.Cmd {
	if msg.gen != m.session.Generation() || !m.session.SendActive() {
		// The user moved on before the request opened.
		if msg.stream != nil {
			msg.stream.Cancel()
		}
		return nil
	}
	if msg.err != nil {
		m.session.OpenFailed(msg.gen, msg.err)
		m.refreshTranscript()
		return nil
	}
	m.stream = msg.stream
	m.decoder = textstream.NewDecoder()
	m.session.StreamOpened(msg.gen, msg.stream.ChatID)
	m.rememberSelection()
	m.refreshTranscript()
	return awaitChunkCmd(msg.gen, msg.stream.Chunks)
}

func (m *Model) handleStreamChunk(msg streamChunkMsg) tea.Cmd {
	if msg.gen != m.session.Generation() || !m.session.SendActive() {
		return nil
	}
	if !msg.ok {
		if m.decoder != nil {
			if tail := m.decoder.Flush(); tail != "" {
				m.session.ApplyFragment(msg.gen, tail)
			}
		}
		m.session.CompleteSend(msg.gen)
		m.stream = nil
		m.decoder = nil
		m.refreshTranscript()
		return nil
	}
	if msg.chunk.Err != nil {
		m.session.FailSend(msg.gen, msg.chunk.Err)
		m.abandonStream()
		m.refreshTranscript()
		return nil
	}
	if m.decoder != nil {
		if text := m.decoder.Feed(msg.chunk.Data); text != "" {
			m.session.ApplyFragment(msg.gen, text)
		}
	}
	m.refreshTranscript()
	return awaitChunkCmd(msg.gen, m.stream.Chunks)
}

// requestDelete parks the delete behind a confirmation; nothing is
// removed until the user decides or the prompt times out.
func (m *Model) requestDelete() tea.Cmd {
	id := m.cursorChatID()
	if id == "" {
		return nil
	}
	title := id
	if conv := m.session.Conversation(id); conv != nil && conv.Title != "" {
		title = conv.Title
	}
	userID := m.session.UserID()
	// Destructive, so the prompt never times out: deleting takes an
	// explicit yes or no.
	m.pending.Request(
		"Delete \""+title+"\"?",
		pending.NoTimeout,
		func() { m.deferCmd(deleteChatCmd(m.api, id, userID)) },
		nil,
	)
	return nil
}

func (m *Model) beginRename(id string) {
	m.renaming = true
	m.renameChatID = id
	title := ""
	if conv := m.session.Conversation(id); conv != nil {
		title = conv.Title
	}
	m.rename.SetValue(title)
	m.rename.CursorEnd()
	m.rename.Focus()
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		id, title := m.renameChatID, m.rename.Value()
		m.endRename()
		if title == "" {
			return nil
		}
		// An unchanged title is an abandoned edit, not a request.
		if conv := m.session.Conversation(id); conv != nil && conv.Title == title {
			return nil
		}
		return renameChatCmd(m.api, id, m.session.UserID(), title)
	case "esc":
		m.endRename()
		return nil
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return cmd
}

func (m *Model) endRename() {
	m.renaming = false
	m.renameChatID = ""
	m.rename.Blur()
	m.rename.Reset()
}

func (m *Model) handleConfirmKey(action *pending.Action, msg tea.KeyMsg) {
	switch msg.String() {
	case "y", "enter":
		m.pending.Confirm(action.ID())
	case "n", "esc":
		m.pending.Cancel(action.ID())
	}
}
