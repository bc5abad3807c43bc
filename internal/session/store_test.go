package session

import (
	"errors"
	"testing"

	"parley/internal/chat"
	"parley/internal/types"
)

func newTestStore() *Store {
	return NewStore("guest", nil)
}

func conv(id, title string) *types.Conversation {
	return &types.Conversation{ID: id, UserID: "guest", Title: title}
}

func TestSendLifecycle(t *testing.T) {
	s := newTestStore()
	s.Select("c1")

	send, err := s.BeginSend("  What is patience?  ")
	if err != nil {
		t.Fatalf("BeginSend: %v", err)
	}
	if send.ChatID != "c1" || send.Text != "What is patience?" {
		t.Fatalf("unexpected send: %+v", send)
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Role != types.RoleUser || msgs[0].Content != "What is patience?" {
		t.Fatalf("user message not appended: %+v", msgs)
	}

	s.StreamOpened(send.Gen, "")
	s.ApplyFragment(send.Gen, "Patience is ")
	s.ApplyFragment(send.Gen, "a virtue.")
	s.CompleteSend(send.Gen)

	msgs = s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(msgs))
	}
	if msgs[1].Role != types.RoleAssistant || msgs[1].Content != "Patience is a virtue." {
		t.Fatalf("unexpected reply: %+v", msgs[1])
	}
	if s.SendActive() {
		t.Fatal("send still active after completion")
	}
}

func TestSecondSendRejectedWhileStreaming(t *testing.T) {
	s := newTestStore()
	if _, err := s.BeginSend("first"); err != nil {
		t.Fatalf("BeginSend: %v", err)
	}
	if _, err := s.BeginSend("second"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}
	if _, err := newTestStore().BeginSend("   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSelectionChangeDropsLateStreamUpdates(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One"), conv("c2", "Two")}, nil)
	s.Select("c1")

	send, _ := s.BeginSend("hello")
	s.StreamOpened(send.Gen, "")
	s.ApplyFragment(send.Gen, "partial ")

	if !s.Select("c2") {
		t.Fatal("selecting a saved conversation should request history")
	}
	if len(s.Messages()) != 0 {
		t.Fatalf("transcript not cleared on selection change: %+v", s.Messages())
	}

	// Late events from the abandoned send must be inert.
	s.ApplyFragment(send.Gen, "answer")
	s.CompleteSend(send.Gen)
	s.FailSend(send.Gen, errors.New("late"))
	if len(s.Messages()) != 0 {
		t.Fatalf("late stream update mutated transcript: %+v", s.Messages())
	}
	if s.SendActive() {
		t.Fatal("abandoned send still active")
	}
}

func TestStaleHistoryDropped(t *testing.T) {
	s := newTestStore()
	s.Select("c1")
	s.Select("c2")
	if err := s.ApplyHistory("c1", []types.Message{{Role: types.RoleUser, Content: "old"}}, nil); err != nil {
		t.Fatalf("ApplyHistory: %v", err)
	}
	if len(s.Messages()) != 0 {
		t.Fatalf("stale history applied: %+v", s.Messages())
	}
	if err := s.ApplyHistory("c2", []types.Message{{Role: types.RoleUser, Content: "current"}}, nil); err != nil {
		t.Fatalf("ApplyHistory: %v", err)
	}
	if len(s.Messages()) != 1 || s.Messages()[0].Content != "current" {
		t.Fatalf("current history not applied: %+v", s.Messages())
	}
}

func TestAdoptAssignedChatID(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("old", "Old")}, nil)

	send, _ := s.BeginSend("Tell me about generosity and kindness")
	s.StreamOpened(send.Gen, "fresh1")

	if s.SelectedID() != "fresh1" {
		t.Fatalf("assigned id not adopted, selected=%q", s.SelectedID())
	}
	convs := s.Conversations()
	if len(convs) != 2 || convs[0].ID != "fresh1" {
		t.Fatalf("new conversation not prepended: %+v", convs)
	}
	if convs[0].Title == "" {
		t.Fatal("derived title missing")
	}

	// The reply still lands in the adopted conversation.
	s.ApplyFragment(send.Gen, "Generosity matters.")
	s.CompleteSend(send.Gen)
	if got := s.Messages()[1].Content; got != "Generosity matters." {
		t.Fatalf("reply lost after adoption: %q", got)
	}
}

func TestAdoptionDoesNotDuplicateKnownConversation(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One")}, nil)

	send, _ := s.BeginSend("hello")
	s.StreamOpened(send.Gen, "c1")
	if len(s.Conversations()) != 1 {
		t.Fatalf("adoption duplicated row: %+v", s.Conversations())
	}
	if s.SelectedID() != "c1" {
		t.Fatalf("selected=%q", s.SelectedID())
	}
}

func TestAssignedIDIgnoredForExistingSelection(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One")}, nil)
	s.Select("c1")

	send, _ := s.BeginSend("hello")
	s.StreamOpened(send.Gen, "other")
	if s.SelectedID() != "c1" {
		t.Fatalf("selection moved to %q", s.SelectedID())
	}
}

func TestFailureReplacesReplyWithNotice(t *testing.T) {
	s := newTestStore()
	send, _ := s.BeginSend("hello")
	s.StreamOpened(send.Gen, "")
	s.ApplyFragment(send.Gen, "half an ans")
	s.FailSend(send.Gen, errors.New("connection reset"))

	msgs := s.Messages()
	if msgs[1].Content != chat.FailureNotice {
		t.Fatalf("reply = %q, want failure notice", msgs[1].Content)
	}
	if msgs[0].Content != "hello" {
		t.Fatal("user message must survive the failure")
	}
	if s.SendActive() {
		t.Fatal("send still active after failure")
	}
}

func TestOpenFailedAppendsNotice(t *testing.T) {
	s := newTestStore()
	send, _ := s.BeginSend("hello")
	s.OpenFailed(send.Gen, errors.New("dial tcp: refused"))

	msgs := s.Messages()
	if len(msgs) != 2 || msgs[1].Content != chat.FailureNotice {
		t.Fatalf("unexpected transcript: %+v", msgs)
	}
	if s.SendActive() {
		t.Fatal("send still active")
	}
}

func TestCreatedConversationSelected(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One")}, nil)
	s.Select("c1")

	if err := s.ApplyCreated(conv("c2", "New Chat"), nil); err != nil {
		t.Fatalf("ApplyCreated: %v", err)
	}
	if s.SelectedID() != "c2" {
		t.Fatalf("selected=%q", s.SelectedID())
	}
	if s.Conversations()[0].ID != "c2" {
		t.Fatalf("created conversation not first: %+v", s.Conversations())
	}
	if len(s.Messages()) != 0 {
		t.Fatal("new conversation should start empty")
	}
}

func TestCreateFailureLeavesListUntouched(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One"), conv("c2", "Two")}, nil)
	s.Select("c1")

	wantErr := errors.New("server unavailable")
	if err := s.ApplyCreated(nil, wantErr); !errors.Is(err, wantErr) {
		t.Fatalf("error not surfaced: %v", err)
	}
	if len(s.Conversations()) != 2 {
		t.Fatalf("failed create changed the list: %+v", s.Conversations())
	}
	if s.SelectedID() != "c1" {
		t.Fatalf("failed create moved selection to %q", s.SelectedID())
	}

	// A response missing its id is rejected the same way.
	if err := s.ApplyCreated(&types.Conversation{Title: "No ID"}, nil); err == nil {
		t.Fatal("conversation without id accepted")
	}
	if len(s.Conversations()) != 2 || s.SelectedID() != "c1" {
		t.Fatalf("id-less create mutated the store: %+v", s.Conversations())
	}
}

func TestDeleteSelectedClearsView(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One"), conv("c2", "Two")}, nil)
	s.Select("c1")
	s.ApplyHistory("c1", []types.Message{{Role: types.RoleUser, Content: "hi"}}, nil)

	if err := s.ApplyDeleted("c1", nil); err != nil {
		t.Fatalf("ApplyDeleted: %v", err)
	}
	if s.SelectedID() != "" || len(s.Messages()) != 0 {
		t.Fatalf("view not cleared: selected=%q msgs=%+v", s.SelectedID(), s.Messages())
	}
	if len(s.Conversations()) != 1 || s.Conversations()[0].ID != "c2" {
		t.Fatalf("row not removed: %+v", s.Conversations())
	}
}

func TestDeleteOtherKeepsView(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One"), conv("c2", "Two")}, nil)
	s.Select("c1")
	s.ApplyHistory("c1", []types.Message{{Role: types.RoleUser, Content: "hi"}}, nil)

	if err := s.ApplyDeleted("c2", nil); err != nil {
		t.Fatalf("ApplyDeleted: %v", err)
	}
	if s.SelectedID() != "c1" || len(s.Messages()) != 1 {
		t.Fatal("unrelated delete disturbed the view")
	}
}

func TestRenameUpdatesTitle(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One")}, nil)
	if err := s.ApplyRenamed("c1", "Better title", nil); err != nil {
		t.Fatalf("ApplyRenamed: %v", err)
	}
	if got := s.Conversation("c1").Title; got != "Better title" {
		t.Fatalf("title = %q", got)
	}
	wantErr := errors.New("denied")
	if err := s.ApplyRenamed("c1", "Nope", wantErr); !errors.Is(err, wantErr) {
		t.Fatalf("error not surfaced: %v", err)
	}
	if got := s.Conversation("c1").Title; got != "Better title" {
		t.Fatalf("failed rename changed title to %q", got)
	}
}

func TestListErrorKeepsPreviousList(t *testing.T) {
	s := newTestStore()
	s.ApplyConversations([]*types.Conversation{conv("c1", "One")}, nil)
	if err := s.ApplyConversations(nil, errors.New("timeout")); err == nil {
		t.Fatal("expected error surfaced")
	}
	if len(s.Conversations()) != 1 {
		t.Fatalf("list lost on fetch error: %+v", s.Conversations())
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"short question", "short question"},
		{"  spaced   out  ", "spaced out"},
		{"this is a deliberately long first message that keeps going", "this is a deliberately long first…"},
	}
	for _, tc := range cases {
		if got := deriveTitle(tc.in); got != tc.want {
			t.Errorf("deriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
