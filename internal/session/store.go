// Package session owns the conversation list, the current selection,
// and the live transcript. It is a plain state machine: all mutation
// happens on the UI loop through the Apply* reducers, and network I/O
// stays with the caller. Results carry the generation of the send or
// selection they belong to, so anything that arrives late — a history
// fetch for a conversation the user already left, a stream update for
// an abandoned send — is discarded instead of corrupting the view.
package session

import (
	"errors"
	"strings"
	"time"

	"parley/internal/chat"
	"parley/internal/logging"
	"parley/internal/types"
)

var (
	// ErrSendInFlight guards the one-outstanding-send-per-conversation
	// rule; the input is disabled while a reply streams, so a second
	// send is a logic error, not a queueing request.
	ErrSendInFlight = errors.New("a send is already in flight")
	ErrEmptyMessage = errors.New("message is empty")
)

const maxDerivedTitleLen = 40

// Send identifies one outgoing message. Gen ties every later stream
// event back to this send.
type Send struct {
	Gen    int
	ChatID string
	Text   string
}

type Store struct {
	log    logging.Logger
	userID string
	now    func() time.Time

	conversations []*types.Conversation
	selected      string
	messages      []types.Message

	gen        int
	sendActive bool
	acc        *chat.Accumulator
	sendText   string
}

func NewStore(userID string, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	if strings.TrimSpace(userID) == "" {
		userID = types.GuestUserID
	}
	return &Store{log: log, userID: userID, now: time.Now}
}

func (s *Store) UserID() string { return s.userID }

// SetIdentity swaps the acting identity, e.g. when sign-in completes
// after startup. The caller is expected to refetch the list.
func (s *Store) SetIdentity(userID string) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = types.GuestUserID
	}
	if userID == s.userID {
		return
	}
	s.userID = userID
	s.invalidateSend()
	s.selected = ""
	s.messages = nil
}

func (s *Store) Conversations() []*types.Conversation { return s.conversations }
func (s *Store) SelectedID() string                   { return s.selected }
func (s *Store) Messages() []types.Message            { return s.messages }
func (s *Store) SendActive() bool                     { return s.sendActive }

// Generation returns the token that stream events must present to be
// applied.
func (s *Store) Generation() int { return s.gen }

func (s *Store) Conversation(id string) *types.Conversation {
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// ApplyConversations replaces the list wholesale with the server's
// order. On error the previous list stays; the list is refetched often
// enough that staleness is acceptable.
func (s *Store) ApplyConversations(chats []*types.Conversation, err error) error {
	if err != nil {
		s.log.Warn("list conversations failed", logging.F("err", err))
		return err
	}
	s.conversations = chats
	return nil
}

// ApplyCreated prepends a server-confirmed conversation and selects
// it. Nothing was added optimistically, so a failure changes nothing.
func (s *Store) ApplyCreated(conv *types.Conversation, err error) error {
	if err != nil {
		return err
	}
	if conv == nil || conv.ID == "" {
		return errors.New("server returned no conversation id")
	}
	s.conversations = append([]*types.Conversation{conv}, s.conversations...)
	s.selectLocked(conv.ID)
	return nil
}

// Select changes the current conversation. It reports whether the
// caller needs to fetch history (an empty id is the unsaved draft and
// has none). Any in-flight send for the previous selection is
// invalidated; its late stream updates will no longer match the
// generation and get dropped.
func (s *Store) Select(id string) (needHistory bool) {
	if id == s.selected {
		return false
	}
	s.selectLocked(id)
	return id != ""
}

func (s *Store) selectLocked(id string) {
	s.invalidateSend()
	s.selected = id
	s.messages = nil
}

// ApplyHistory installs fetched history, unless the user has already
// moved on to a different conversation.
func (s *Store) ApplyHistory(id string, msgs []types.Message, err error) error {
	if id != s.selected {
		s.log.Debug("stale history dropped", logging.F("chat", id))
		return nil
	}
	if err != nil {
		return err
	}
	s.messages = msgs
	return nil
}

// BeginSend appends the user message optimistically and hands back the
// send descriptor the transport needs. The user message stays in the
// transcript regardless of the network outcome.
func (s *Store) BeginSend(text string) (*Send, error) {
	if s.sendActive {
		return nil, ErrSendInFlight
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	s.messages = append(s.messages, types.Message{Role: types.RoleUser, Content: text})
	s.gen++
	s.sendActive = true
	s.sendText = text
	s.acc = nil
	return &Send{Gen: s.gen, ChatID: s.selected, Text: text}, nil
}

// StreamOpened acknowledges that the transport accepted the send. The
// in-progress assistant message is appended now, and a server-assigned
// conversation id is adopted immediately so follow-up sends address
// the persisted conversation.
func (s *Store) StreamOpened(gen int, assignedChatID string) {
	if !s.sendLive(gen) {
		return
	}
	s.messages = append(s.messages, types.Message{Role: types.RoleAssistant})
	s.acc = chat.NewAccumulator(func(value string) {
		s.setLiveReply(value)
	})
	if assignedChatID != "" && s.selected == "" {
		s.adoptChatID(assignedChatID)
	}
}

// OpenFailed handles a send whose request never produced a stream. The
// failure notice takes the place the reply would have had.
func (s *Store) OpenFailed(gen int, err error) {
	if !s.sendLive(gen) {
		return
	}
	s.log.Warn("send failed to open", logging.F("err", err))
	s.messages = append(s.messages, types.Message{Role: types.RoleAssistant, Content: chat.FailureNotice})
	s.sendActive = false
	s.acc = nil
}

// ApplyFragment feeds one decoded fragment into the accumulator.
func (s *Store) ApplyFragment(gen int, fragment string) {
	if !s.sendLive(gen) || s.acc == nil {
		return
	}
	s.acc.Feed(fragment)
}

// CompleteSend finishes the stream cleanly.
func (s *Store) CompleteSend(gen int) {
	if !s.sendLive(gen) || s.acc == nil {
		return
	}
	s.acc.Complete()
	s.sendActive = false
}

// FailSend handles a transport error mid-stream.
func (s *Store) FailSend(gen int, err error) {
	if !s.sendLive(gen) || s.acc == nil {
		return
	}
	s.log.Warn("send stream failed", logging.F("err", err))
	s.acc.Fail(err)
	s.sendActive = false
}

func (s *Store) sendLive(gen int) bool {
	return s.sendActive && gen == s.gen
}

func (s *Store) invalidateSend() {
	if s.sendActive {
		s.gen++
	}
	s.sendActive = false
	s.acc = nil
}

// setLiveReply replaces (by value) the content of the in-progress
// assistant message.
func (s *Store) setLiveReply(value string) {
	if len(s.messages) == 0 {
		return
	}
	last := len(s.messages) - 1
	if s.messages[last].Role != types.RoleAssistant {
		return
	}
	s.messages[last].Content = value
}

// adoptChatID maps the unsaved draft onto the id the server assigned.
// The conversation must end up in the list exactly once.
func (s *Store) adoptChatID(id string) {
	s.selected = id
	for _, conv := range s.conversations {
		if conv.ID == id {
			conv.UpdatedAt = s.now()
			return
		}
	}
	now := s.now()
	s.conversations = append([]*types.Conversation{{
		ID:        id,
		UserID:    s.userID,
		Title:     deriveTitle(s.sendText),
		CreatedAt: now,
		UpdatedAt: now,
	}}, s.conversations...)
}

// ApplyRenamed installs a server-acknowledged title. Titles are never
// changed optimistically, so a failure needs no rollback — only the
// error surfaced so the edit can be corrected.
func (s *Store) ApplyRenamed(id, title string, err error) error {
	if err != nil {
		return err
	}
	if conv := s.Conversation(id); conv != nil {
		conv.Title = title
		conv.UpdatedAt = s.now()
	}
	return nil
}

// ApplyDeleted removes a conversation after the server confirmed the
// delete. Deleting the selected conversation clears the selection and
// the transcript.
func (s *Store) ApplyDeleted(id string, err error) error {
	if err != nil {
		return err
	}
	kept := s.conversations[:0]
	for _, conv := range s.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	s.conversations = kept
	if s.selected == id {
		s.invalidateSend()
		s.selected = ""
		s.messages = nil
	}
	return nil
}

// deriveTitle produces a provisional list title for a conversation the
// server created implicitly; the next list refresh replaces it with
// the server's own.
func deriveTitle(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxDerivedTitleLen {
		return text
	}
	cut := strings.LastIndexByte(text[:maxDerivedTitleLen], ' ')
	if cut <= 0 {
		cut = maxDerivedTitleLen
	}
	return text[:cut] + "…"
}
