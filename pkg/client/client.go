// Package client is a Go client for the chatd HTTP API, including a
// reconnecting consumer for the SSE token stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"chatd/pkg/types"
)

// Client issues requests against a chatd server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The default has no
// timeout because SSE streams are long-lived.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New constructs a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response decoded from the server's error payload.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatd: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	ae, ok := err.(*APIError)
	return ok && ae.Status == http.StatusNotFound
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var buf *bytes.Buffer
	if body != nil {
		buf = &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr types.ErrorResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&apiErr); decErr == nil && apiErr.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateConversation creates a chat thread. An empty title gets the server
// default.
func (c *Client) CreateConversation(ctx context.Context, title string) (types.Conversation, error) {
	var conv types.Conversation
	err := c.doJSON(ctx, http.MethodPost, "/v1/conversations", map[string]string{"title": title}, &conv)
	return conv, err
}

// StartChat initiates a streaming exchange and returns the session to
// consume.
func (c *Client) StartChat(ctx context.Context, conversationID int64, message string) (types.StartChatResponse, error) {
	var resp types.StartChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/chat/stream",
		types.StartChatRequest{ConversationID: conversationID, Message: message}, &resp)
	return resp, err
}

// CancelChat asks the server to stop generating for a session.
func (c *Client) CancelChat(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/chat/stream/"+sessionID+"/cancel", nil, nil)
}

// GetMessage fetches a persisted message; after a stream completes this is
// the authoritative final content.
func (c *Client) GetMessage(ctx context.Context, id int64) (types.Message, error) {
	var msg types.Message
	err := c.doJSON(ctx, http.MethodGet, "/v1/messages/"+strconv.FormatInt(id, 10), nil, &msg)
	return msg, err
}

// ListMessages returns a conversation's transcript.
func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]types.Message, error) {
	var out struct {
		Messages []types.Message `json:"messages"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/v1/conversations/"+strconv.FormatInt(conversationID, 10)+"/messages", nil, &out)
	return out.Messages, err
}

// Status reports the server's live sessions and limits.
func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	var st types.StatusResponse
	err := c.doJSON(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

// openStream performs the SSE GET for a session. The caller owns the
// response body on success.
func (c *Client) openStream(ctx context.Context, sessionID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/chat/stream/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Message: "unexpected stream status"}
	}
	return resp, nil
}
