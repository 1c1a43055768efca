// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the server-to-client event stream carrying
// incremental AI output.
package stream

// =============================================================================
// EVENTS
// =============================================================================

// Event is one decoded stream event. Exactly one of Fragment, Complete, or
// Failure.
type Event interface {
	isEvent()
}

// Fragment is an incremental, order-significant piece of AI output.
type Fragment struct {
	Content string
}

// Complete terminates a stream successfully. MessageID is the server-assigned
// ID under which the assembled content was persisted.
type Complete struct {
	MessageID string
}

// Failure terminates a stream with an error. No further events follow.
type Failure struct {
	Reason string
}

func (Fragment) isEvent() {}
func (Complete) isEvent() {}
func (Failure) isEvent()  {}

// Terminal reasons synthesized by the Reader itself.
const (
	// ReasonParseFailure is reported when a frame is not valid JSON.
	ReasonParseFailure = "failed to parse response"

	// ReasonUnexpectedEnd is reported when the connection closes without a
	// terminal event.
	ReasonUnexpectedEnd = "stream terminated unexpectedly"
)

// =============================================================================
// WIRE FORMAT
// =============================================================================

// Chunk is the JSON payload of a single "data: " frame.
type Chunk struct {
	Content   string  `json:"content"`
	IsFinal   bool    `json:"is_final"`
	MessageID *string `json:"message_id"`
	Error     string  `json:"error,omitempty"`
}
