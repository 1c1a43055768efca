// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client is the HTTP client for the chat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/stream"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError represents an error from the chat API.
type APIError struct {
	Type    ErrorKind
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// ErrorKind categorizes API errors for handling.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConnection
	KindNotFound
	KindValidation
	KindRateLimited
	KindServer
)

// kindForStatus maps an HTTP status onto an error kind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat API server. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type chatRequest struct {
	Title string `json:"title"`
}

type messageRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

type replyMetadataRequest struct {
	ParentID   string `json:"parent_id"`
	StartIndex *int   `json:"start_index,omitempty"`
	EndIndex   *int   `json:"end_index,omitempty"`
}

type replyRequest struct {
	Content       string                `json:"content"`
	Sender        string                `json:"sender"`
	ReplyMetadata *replyMetadataRequest `json:"reply_metadata,omitempty"`
}

// MessagesPage is one page of a chat's messages.
type MessagesPage struct {
	Messages []*model.Message `json:"messages"`
	Total    int              `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// CreateChat creates a chat. An empty title lets the server pick a default.
func (c *Client) CreateChat(ctx context.Context, title string) (*model.Chat, error) {
	var chat model.Chat
	if err := c.doJSON(ctx, http.MethodPost, "/chats", chatRequest{Title: title}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChat fetches a chat by ID.
func (c *Client) GetChat(ctx context.Context, chatID string) (*model.Chat, error) {
	var chat model.Chat
	if err := c.doJSON(ctx, http.MethodGet, "/chats/"+chatID, nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChats lists chats, most recently updated first.
func (c *Client) ListChats(ctx context.Context) ([]*model.Chat, error) {
	var chats []*model.Chat
	if err := c.doJSON(ctx, http.MethodGet, "/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// UpdateChatTitle renames a chat.
func (c *Client) UpdateChatTitle(ctx context.Context, chatID, title string) (*model.Chat, error) {
	var chat model.Chat
	if err := c.doJSON(ctx, http.MethodPut, "/chats/"+chatID, chatRequest{Title: title}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// DeleteChat removes a chat along with its messages and reply metadata.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chats/"+chatID, nil, nil)
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// ListMessages fetches a page of a chat's messages in chronological order.
func (c *Client) ListMessages(ctx context.Context, chatID string, skip, limit int) (*MessagesPage, error) {
	path := fmt.Sprintf("/chats/%s/messages?skip=%d&limit=%d", chatID, skip, limit)
	var page MessagesPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetMessage fetches a single message.
func (c *Client) GetMessage(ctx context.Context, chatID, messageID string) (*model.Message, error) {
	var msg model.Message
	path := fmt.Sprintf("/chats/%s/messages/%s", chatID, messageID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// =============================================================================
// STREAMING OPERATIONS
// =============================================================================

// StreamMessage sends a user message and streams the AI response, delivering
// decoded events to onEvent in order. Blocks until the terminal event has
// been delivered or ctx is cancelled.
func (c *Client) StreamMessage(ctx context.Context, chatID, content string, onEvent func(stream.Event)) error {
	path := fmt.Sprintf("/chats/%s/messages/stream", chatID)
	return c.doStream(ctx, path, messageRequest{Content: content, Sender: model.SenderUser.String()}, onEvent)
}

// StreamReply sends a reply to parentID and streams the AI response. The
// optional quote narrows the replied-to text.
func (c *Client) StreamReply(ctx context.Context, chatID, parentID, content string, quote *model.QuoteRange, onEvent func(stream.Event)) error {
	body := replyRequest{Content: content, Sender: model.SenderUser.String()}
	if quote != nil {
		body.ReplyMetadata = &replyMetadataRequest{
			ParentID:   parentID,
			StartIndex: &quote.Start,
			EndIndex:   &quote.End,
		}
	}
	path := fmt.Sprintf("/chats/%s/messages/%s/reply/stream", chatID, parentID)
	return c.doStream(ctx, path, body, onEvent)
}

// doStream opens a streaming POST and pumps events through the reader.
func (c *Client) doStream(ctx context.Context, path string, body any, onEvent func(stream.Event)) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &APIError{Type: KindUnknown, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return &APIError{Type: KindConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout on streams; lifetime is bounded by the context.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ctx.Err()
		}
		return &APIError{Type: KindConnection, Message: "failed to reach server", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.errorFromResponse(resp)
	}

	return stream.NewReader(resp.Body).Process(ctx, onEvent)
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// doJSON performs a JSON request/response round trip.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Type: KindUnknown, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Type: KindConnection, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Type: KindConnection, Message: "failed to reach server", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Type: KindServer, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// errorFromResponse turns a non-2xx response into an APIError, preferring
// the server's error message when the body carries one.
func (c *Client) errorFromResponse(resp *http.Response) error {
	kind := kindForStatus(resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return &APIError{Type: kind, Message: body.Error}
	}
	return &APIError{Type: kind, Message: "request failed: " + resp.Status}
}
