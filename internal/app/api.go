package app

import (
	"context"

	"parley/internal/client"
	"parley/internal/types"
)

// API is what the UI needs from the answer service. *client.Client
// satisfies it; tests substitute fakes.
type API interface {
	ListChats(ctx context.Context, userID string) ([]*types.Conversation, error)
	CreateChat(ctx context.Context, userID, title string) (*types.Conversation, error)
	Messages(ctx context.Context, chatID, userID string) ([]types.Message, error)
	RenameChat(ctx context.Context, chatID, userID, title string) error
	DeleteChat(ctx context.Context, chatID, userID string) error
	Send(ctx context.Context, chatID, userID, content string) (*client.ReplyStream, error)
}

var _ API = (*client.Client)(nil)
