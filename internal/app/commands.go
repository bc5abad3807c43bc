package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/client"
)

const tickInterval = time.Second

func fetchChatsCmd(api API, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		chats, err := api.ListChats(ctx, userID)
		return chatsMsg{chats: chats, err: err}
	}
}

func createChatCmd(api API, userID, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		chat, err := api.CreateChat(ctx, userID, title)
		return chatCreatedMsg{chat: chat, err: err}
	}
}

func fetchHistoryCmd(api API, chatID, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		messages, err := api.Messages(ctx, chatID, userID)
		return historyMsg{chatID: chatID, messages: messages, err: err}
	}
}

// openSendCmd issues the send. The stream itself is consumed chunk by
// chunk via awaitChunkCmd; only the request open is bounded here, the
// reply may take as long as it takes.
func openSendCmd(api API, gen int, chatID, userID, content string) tea.Cmd {
	return func() tea.Msg {
		stream, err := api.Send(context.Background(), chatID, userID, content)
		return sendOpenedMsg{gen: gen, stream: stream, err: err}
	}
}

func awaitChunkCmd(gen int, chunks <-chan client.StreamChunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-chunks
		return streamChunkMsg{gen: gen, chunk: chunk, ok: ok}
	}
}

func renameChatCmd(api API, chatID, userID, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		err := api.RenameChat(ctx, chatID, userID, title)
		return chatRenamedMsg{chatID: chatID, title: title, err: err}
	}
}

func deleteChatCmd(api API, chatID, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		err := api.DeleteChat(ctx, chatID, userID)
		return chatDeletedMsg{chatID: chatID, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
