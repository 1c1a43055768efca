// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, and replies.
package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// =============================================================================
// QUOTE RANGE
// =============================================================================

// QuoteRange is a half-open character range [Start, End) into a parent
// message's content, counted in Unicode code points.
type QuoteRange struct {
	Start int `json:"start_index"`
	End   int `json:"end_index"`
}

// RangeError reports an invalid quote range.
type RangeError struct {
	Start         int
	End           int
	ContentLength int
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid reply range [%d, %d) for content length %d",
		e.Start, e.End, e.ContentLength)
}

// Validate checks the range against the parent message's content.
func (r QuoteRange) Validate(parentContent string) error {
	length := utf8.RuneCountInString(parentContent)
	if r.Start < 0 || r.Start >= r.End || r.End > length {
		return &RangeError{Start: r.Start, End: r.End, ContentLength: length}
	}
	return nil
}

// Slice returns the quoted sub-range of content. An invalid range yields "".
func (r QuoteRange) Slice(content string) string {
	if err := r.Validate(content); err != nil {
		return ""
	}
	runes := []rune(content)
	return string(runes[r.Start:r.End])
}

// =============================================================================
// REPLY METADATA
// =============================================================================

// ReplyMetadata links a reply message to the message it replies to.
// A message owns at most one ReplyMetadata; chains of replies form a forest.
type ReplyMetadata struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	ParentID  string    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`

	// Range is the optional quoted sub-range of the parent's content.
	Range *QuoteRange `json:"range,omitempty"`
}

// QuotedText returns the portion of the parent content this reply refers to.
// Without a range the whole parent content is the referent.
func (rm *ReplyMetadata) QuotedText(parentContent string) string {
	if rm.Range == nil {
		return parentContent
	}
	return rm.Range.Slice(parentContent)
}
