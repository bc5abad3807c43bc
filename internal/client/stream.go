package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"parley/internal/logging"
)

// ChatIDHeader carries the server-assigned conversation id when a send
// targeted no existing conversation.
const ChatIDHeader = "X-Chat-Id"

const streamReadSize = 4096

// StreamChunk is one read from the response body. Err is set only on
// the final chunk when the transport failed mid-stream; a clean end is
// signalled by the channel closing.
type StreamChunk struct {
	Data []byte
	Err  error
}

// ReplyStream is the handle for one in-flight reply.
type ReplyStream struct {
	// ChatID is the server-assigned conversation id from the response
	// header, or "" when the request addressed an existing conversation.
	ChatID string
	Chunks <-chan StreamChunk
	cancel context.CancelFunc
}

// Cancel abandons the stream; the reader goroutine shuts down and the
// chunk channel closes.
func (s *ReplyStream) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// Send posts one user message and opens the reply stream. The body may
// be framed as plain text or as line-delimited JSON envelopes; this
// layer does not care, it hands bytes up in arrival order.
func (c *Client) Send(ctx context.Context, chatID, userID, content string) (*ReplyStream, error) {
	path := "/chat"
	if chatID != "" {
		path = "/chat/" + url.PathEscape(chatID)
	}
	payload, err := json.Marshal(SendRequest{UserID: userID, Content: content})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	reqID := requestID()
	c.log.Debug("send open", logging.F("id", reqID), logging.F("chat", chatID))
	resp, err := c.httpStream.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, decodeAPIError(resp)
	}

	ch := make(chan StreamChunk, 32)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		buf := make([]byte, streamReadSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case ch <- StreamChunk{Data: data}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					c.log.Warn("send stream error", logging.F("id", reqID), logging.F("err", err))
					select {
					case ch <- StreamChunk{Err: err}:
					case <-ctx.Done():
					}
				}
				return
			}
		}
	}()

	return &ReplyStream{
		ChatID: resp.Header.Get(ChatIDHeader),
		Chunks: ch,
		cancel: cancel,
	}, nil
}
