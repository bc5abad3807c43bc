package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parley/internal/logging"
)

func newTestClient(baseURL string) *Client {
	return New(baseURL, 2*time.Second, logging.Nop())
}

func TestListChatsRequestShape(t *testing.T) {
	var seenPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chats":[{"id":"c1","title":"First"},{"id":"c2","title":"Second"}]}`))
	}))
	defer server.Close()

	chats, err := newTestClient(server.URL).ListChats(context.Background(), "web user")
	if err != nil {
		t.Fatalf("ListChats error: %v", err)
	}
	if seenPath != "/api/chats?user_id=web+user" {
		t.Fatalf("unexpected request path: %s", seenPath)
	}
	if len(chats) != 2 || chats[0].ID != "c1" || chats[1].Title != "Second" {
		t.Fatalf("unexpected chats: %+v", chats)
	}
}

func TestCreateChatPostsBody(t *testing.T) {
	var seen CreateChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chats" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&seen)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c9","title":"New Chat"}`))
	}))
	defer server.Close()

	conv, err := newTestClient(server.URL).CreateChat(context.Background(), "guest", "New Chat")
	if err != nil {
		t.Fatalf("CreateChat error: %v", err)
	}
	if seen.UserID != "guest" || seen.Title != "New Chat" {
		t.Fatalf("unexpected body: %+v", seen)
	}
	if conv.ID != "c9" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
}

func TestRenameAndDeletePaths(t *testing.T) {
	var methods []string
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.RequestURI())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if err := c.RenameChat(context.Background(), "c1", "guest", "Renamed"); err != nil {
		t.Fatalf("RenameChat error: %v", err)
	}
	if err := c.DeleteChat(context.Background(), "c1", "guest"); err != nil {
		t.Fatalf("DeleteChat error: %v", err)
	}
	if methods[0] != http.MethodPut || paths[0] != "/api/chats/c1/title" {
		t.Fatalf("unexpected rename request: %s %s", methods[0], paths[0])
	}
	if methods[1] != http.MethodDelete || paths[1] != "/api/chats/c1?user_id=guest" {
		t.Fatalf("unexpected delete request: %s %s", methods[1], paths[1])
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"chat not found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Messages(context.Background(), "gone", "guest")
	apiErr := AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "chat not found" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestSendStreamsChunksInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set(ChatIDHeader, "abc123")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Hello ", "wor", "ld"} {
			_, _ = w.Write([]byte(part))
			flusher.Flush()
		}
	}))
	defer server.Close()

	stream, err := newTestClient(server.URL).Send(context.Background(), "", "guest", "hi")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if stream.ChatID != "abc123" {
		t.Fatalf("header id = %q", stream.ChatID)
	}
	var got []byte
	for chunk := range stream.Chunks {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		got = append(got, chunk.Data...)
	}
	if string(got) != "Hello world" {
		t.Fatalf("reassembled %q", got)
	}
}

func TestSendToExistingChatUsesIDPath(t *testing.T) {
	var seenPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	stream, err := newTestClient(server.URL).Send(context.Background(), "c7", "guest", "hi")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	for range stream.Chunks {
	}
	if seenPath != "/chat/c7" {
		t.Fatalf("unexpected path: %s", seenPath)
	}
	if stream.ChatID != "" {
		t.Fatalf("no header expected, got %q", stream.ChatID)
	}
}

func TestSendRejectedStatusReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Send(context.Background(), "", "guest", "hi")
	apiErr := AsAPIError(err)
	if apiErr == nil || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
}

func TestCancelStopsStream(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("first"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	stream, err := newTestClient(server.URL).Send(context.Background(), "", "guest", "hi")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	<-stream.Chunks
	stream.Cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream.Chunks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancel")
		}
	}
}
