// Package client is the HTTP boundary to the answer service. The rest
// of the program talks to it through plain values and channels; nothing
// above this package builds a request or reads a response body.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"parley/internal/logging"
	"parley/internal/types"
)

type Client struct {
	baseURL string
	log     logging.Logger
	http    *http.Client
	// streaming requests get a client without a global timeout; a
	// reply may legitimately take longer than any API call.
	httpStream *http.Client
}

func New(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
		http:       &http.Client{Timeout: timeout},
		httpStream: &http.Client{},
	}
}

func (c *Client) ListChats(ctx context.Context, userID string) ([]*types.Conversation, error) {
	var resp ChatsResponse
	path := "/api/chats?user_id=" + url.QueryEscape(userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

func (c *Client) CreateChat(ctx context.Context, userID, title string) (*types.Conversation, error) {
	var conv types.Conversation
	req := CreateChatRequest{UserID: userID, Title: title}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chats", req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) Messages(ctx context.Context, chatID, userID string) ([]types.Message, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, errors.New("chat id is required")
	}
	var resp MessagesResponse
	path := fmt.Sprintf("/api/chats/%s/messages?user_id=%s", url.PathEscape(chatID), url.QueryEscape(userID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) RenameChat(ctx context.Context, chatID, userID, title string) error {
	if strings.TrimSpace(chatID) == "" {
		return errors.New("chat id is required")
	}
	req := RenameChatRequest{UserID: userID, Title: title}
	path := fmt.Sprintf("/api/chats/%s/title", url.PathEscape(chatID))
	return c.doJSON(ctx, http.MethodPut, path, req, nil)
}

func (c *Client) DeleteChat(ctx context.Context, chatID, userID string) error {
	if strings.TrimSpace(chatID) == "" {
		return errors.New("chat id is required")
	}
	path := fmt.Sprintf("/api/chats/%s?user_id=%s", url.PathEscape(chatID), url.QueryEscape(userID))
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	reqID := requestID()
	c.log.Debug("api request", logging.F("id", reqID), logging.F("method", method), logging.F("path", path))
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", logging.F("id", reqID), logging.F("err", err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp)
		c.log.Warn("api error", logging.F("id", reqID), logging.F("status", resp.StatusCode))
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	message := payload.Error
	if message == "" {
		message = payload.Detail
	}
	if message == "" {
		message = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

func requestID() string {
	return uuid.NewString()[:8]
}
