// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, and replies.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andrewchu16/chat-replies/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender represents the originator of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// Valid reports whether the sender is one of the known values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAI:
		return "Assistant"
	default:
		return string(s)
	}
}

// =============================================================================
// CONTENT CONSTRAINTS
// =============================================================================

const (
	// MinContentLength is the minimum message content length in code points.
	MinContentLength = 1

	// MaxContentLength is the maximum message content length in code points.
	MaxContentLength = 10000
)

var (
	// ErrEmptyContent is returned when message content is empty after trimming.
	ErrEmptyContent = errors.New("message content cannot be empty")

	// ErrContentTooLong is returned when message content exceeds MaxContentLength.
	ErrContentTooLong = errors.New("message content exceeds maximum length")

	// ErrInvalidSender is returned for a sender outside {user, ai}.
	ErrInvalidSender = errors.New("sender must be 'user' or 'ai'")
)

// ValidateContent checks message content against the length constraints.
// Lengths are counted in Unicode code points, not bytes.
func ValidateContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a chat.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`

	// Content
	Content string `json:"content"`

	// Reply metadata, present only when this message replies to another.
	ReplyMetadata *ReplyMetadata `json:"reply_metadata,omitempty"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
}

// NewMessage creates a new message with a generated local ID.
func NewMessage(chatID string, sender Sender, content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		ChatID:    chatID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(chatID, content string) *Message {
	return NewMessage(chatID, SenderUser, content)
}

// NewPendingMessage creates the in-flight AI message used while streaming.
// The ID is local; it is replaced with the server-assigned ID on Finalize.
func NewPendingMessage(chatID string) *Message {
	return &Message{
		ID:          generateMessageID(),
		ChatID:      chatID,
		Sender:      SenderAI,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendFragment appends a streamed content fragment to an in-flight message.
// Fragments are applied strictly in arrival order; no separators are injected.
func (m *Message) AppendFragment(fragment string) {
	if m.IsStreaming {
		m.streamContent.WriteString(fragment)
	}
}

// Finalize completes streaming, fixing the accumulated content and swapping
// the local ID for the server-assigned one. It is a no-op on settled messages.
func (m *Message) Finalize(serverID string) {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
	if serverID != "" {
		m.ID = serverID
	}
}

// DisplayContent returns the content to display (streaming or final).
func (m *Message) DisplayContent() string {
	if m.IsStreaming && m.streamContent.Len() > 0 {
		return m.streamContent.String()
	}
	return m.Content
}

// Snapshot returns a value copy of the message's current state, with any
// streamed content materialized into Content. The copy is never mutated by
// further streaming, so it is safe to hand to other goroutines. Must be
// called by the message's owning writer.
func (m *Message) Snapshot() *Message {
	return &Message{
		ID:            m.ID,
		ChatID:        m.ChatID,
		Sender:        m.Sender,
		CreatedAt:     m.CreatedAt,
		Content:       m.DisplayContent(),
		ReplyMetadata: m.ReplyMetadata,
		IsStreaming:   m.IsStreaming,
	}
}

// IsEmpty reports whether the message has no content at all.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// Preview returns a single-line preview of the message content, truncated
// to a maximum display width. Wide runes count for the columns they occupy,
// so CJK-heavy content does not overflow its line.
func (m *Message) Preview(maxWidth int) string {
	return util.TruncateWidth(util.CollapseWhitespace(m.DisplayContent()), maxWidth)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique local message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
