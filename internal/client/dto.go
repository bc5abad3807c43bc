package client

import "parley/internal/types"

type ChatsResponse struct {
	Chats []*types.Conversation `json:"chats"`
}

type MessagesResponse struct {
	Messages []types.Message `json:"messages"`
}

type CreateChatRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

type RenameChatRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

type SendRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}
