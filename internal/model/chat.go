// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, and replies.
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// =============================================================================
// TITLE CONSTRAINTS
// =============================================================================

// MaxTitleLength is the maximum chat title length in code points.
const MaxTitleLength = 255

var (
	// ErrEmptyTitle is returned when a chat title is empty after trimming.
	ErrEmptyTitle = errors.New("chat title cannot be empty")

	// ErrTitleTooLong is returned when a chat title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("chat title exceeds maximum length")
)

// ValidateTitle checks a chat title against the length constraints.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds a conversation container grouping ordered messages.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultChatTitle generates a title for lazily created chats.
func DefaultChatTitle(now time.Time) string {
	return "Chat " + now.Format("2006-01-02 15:04")
}
