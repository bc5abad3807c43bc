package app

import (
	"time"

	"parley/internal/client"
	"parley/internal/types"
)

type chatsMsg struct {
	chats []*types.Conversation
	err   error
}

type chatCreatedMsg struct {
	chat *types.Conversation
	err  error
}

type historyMsg struct {
	chatID   string
	messages []types.Message
	err      error
}

type sendOpenedMsg struct {
	gen    int
	stream *client.ReplyStream
	err    error
}

// streamChunkMsg delivers one chunk of the active reply stream. ok is
// false when the channel closed, i.e. the reply ended cleanly.
type streamChunkMsg struct {
	gen   int
	chunk client.StreamChunk
	ok    bool
}

type chatRenamedMsg struct {
	chatID string
	title  string
	err    error
}

type chatDeletedMsg struct {
	chatID string
	err    error
}

type tickMsg time.Time
