// Package app is the terminal front end: a conversation list, a
// transcript, and an input box, glued to the answer service by the
// bubbletea update loop. All state mutation happens on that loop;
// commands only do I/O and report back as messages.
package app

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/client"
	"parley/internal/config"
	"parley/internal/logging"
	"parley/internal/pending"
	"parley/internal/session"
	"parley/internal/store"
	"parley/internal/textstream"
)

const (
	sidebarWidth     = 32
	minContentHeight = 6
	inputHeight      = 3
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

type Model struct {
	api     API
	log     logging.Logger
	session *session.Store
	pending *pending.Coordinator
	local   *store.LocalState

	input      textarea.Model
	rename     textinput.Model
	spin       spinner.Model
	transcript viewport.Model

	width  int
	height int
	ready  bool
	focus  focusArea
	cursor int

	// stream/decoder belong to the send identified by
	// session.Generation(); both are dropped when the send ends or is
	// abandoned.
	stream  *client.ReplyStream
	decoder *textstream.Decoder

	renaming     bool
	renameChatID string

	// suggestion indexes the highlighted starter question in the empty
	// state, -1 when none is highlighted.
	suggestion int

	markdown bool
	toastTTL time.Duration

	toastText  string
	toastLevel toastLevel
	toastUntil time.Time

	// deferred collects commands produced by pending-action callbacks;
	// the update loop drains it after every mutation.
	deferred []tea.Cmd

	quitting bool
}

func NewModel(cfg config.Config, api API, local *store.LocalState, log logging.Logger) *Model {
	if log == nil {
		log = logging.Nop()
	}

	input := textarea.New()
	input.Placeholder = "Ask a question..."
	input.CharLimit = 4000
	input.SetHeight(inputHeight - 2)
	input.ShowLineNumbers = false
	input.Focus()

	rename := textinput.New()
	rename.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	return &Model{
		api:        api,
		log:        log,
		session:    session.NewStore(cfg.UserID(), log),
		pending:    pending.NewCoordinator(),
		local:      local,
		input:      input,
		rename:     rename,
		spin:       spin,
		markdown:   cfg.MarkdownEnabled(),
		toastTTL:   cfg.ToastDuration(),
		suggestion: -1,
	}
}

func Run(cfg config.Config, api API, local *store.LocalState, log logging.Logger) error {
	m := NewModel(cfg, api, local, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		fetchChatsCmd(m.api, m.session.UserID()),
		textarea.Blink,
		tickCmd(),
	}
	if m.local != nil {
		if last, err := m.local.LastSelected(); err == nil && last != "" {
			if m.session.Select(last) {
				cmds = append(cmds, fetchHistoryCmd(m.api, last, m.session.UserID()))
			}
		}
		if draft, err := m.local.Draft(m.session.SelectedID()); err == nil && draft != "" {
			m.input.SetValue(draft)
		}
	}
	return tea.Batch(cmds...)
}

// selectChat switches the view to another conversation: the draft of
// the old one is saved, an in-flight reply stream is abandoned, and
// history is fetched for the new one.
func (m *Model) selectChat(id string) tea.Cmd {
	if id == m.session.SelectedID() {
		return nil
	}
	m.saveDraft()
	m.abandonStream()
	needHistory := m.session.Select(id)
	m.rememberSelection()
	m.loadDraft()
	if needHistory {
		return fetchHistoryCmd(m.api, id, m.session.UserID())
	}
	return nil
}

func (m *Model) abandonStream() {
	if m.stream != nil {
		m.stream.Cancel()
		m.stream = nil
	}
	m.decoder = nil
}

func (m *Model) rememberSelection() {
	if m.local == nil {
		return
	}
	if err := m.local.SetLastSelected(m.session.SelectedID()); err != nil {
		m.log.Warn("persist selection failed", logging.F("err", err))
	}
}

func (m *Model) saveDraft() {
	if m.local == nil {
		return
	}
	if err := m.local.SetDraft(m.session.SelectedID(), m.input.Value()); err != nil {
		m.log.Warn("save draft failed", logging.F("err", err))
	}
}

func (m *Model) loadDraft() {
	m.input.Reset()
	if m.local == nil {
		return
	}
	if draft, err := m.local.Draft(m.session.SelectedID()); err == nil && draft != "" {
		m.input.SetValue(draft)
	}
}

// defer queues a command from inside a pending-action callback.
func (m *Model) deferCmd(cmd tea.Cmd) {
	if cmd != nil {
		m.deferred = append(m.deferred, cmd)
	}
}

func (m *Model) drainDeferred(cmds []tea.Cmd) []tea.Cmd {
	cmds = append(cmds, m.deferred...)
	m.deferred = nil
	return cmds
}

// cursorChatID returns the conversation under the sidebar cursor.
func (m *Model) cursorChatID() string {
	convs := m.session.Conversations()
	if m.cursor < 0 || m.cursor >= len(convs) {
		return ""
	}
	return convs[m.cursor].ID
}

func (m *Model) clampCursor() {
	if n := len(m.session.Conversations()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) layout() {
	contentWidth := m.width - sidebarWidth - 1
	if contentWidth < 20 {
		contentWidth = 20
	}
	contentHeight := m.height - inputHeight - 2
	if contentHeight < minContentHeight {
		contentHeight = minContentHeight
	}
	if !m.ready {
		m.transcript = viewport.New(contentWidth, contentHeight)
		m.ready = true
	} else {
		m.transcript.Width = contentWidth
		m.transcript.Height = contentHeight
	}
	m.input.SetWidth(contentWidth - 2)
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(m.renderTranscript(m.transcript.Width))
	if atBottom {
		m.transcript.GotoBottom()
	}
}

var _ tea.Model = (*Model)(nil)
