// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates a chat view: the message list, the in-flight
// AI message, and the single active stream per session.
package session

import (
	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/stream"
)

// =============================================================================
// ASSEMBLER STATE MACHINE
// =============================================================================

// State is the assembler lifecycle state.
type State int

const (
	// StateIdle means no stream has started yet.
	StateIdle State = iota

	// StateStreaming means the placeholder exists and fragments are being
	// applied.
	StateStreaming

	// StateReconciled means the stream completed and the placeholder became
	// a settled message with a server-assigned ID.
	StateReconciled

	// StateDiscarded means the stream failed or was cancelled and the
	// placeholder was removed.
	StateDiscarded
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateReconciled:
		return "reconciled"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Assembler drives one stream's in-flight message through its lifecycle.
// It is owned by a single Coordinator and is not safe for concurrent use on
// its own; the Coordinator serializes access.
type Assembler struct {
	state   State
	message *model.Message
	reason  string
}

// NewAssembler creates an idle assembler.
func NewAssembler() *Assembler {
	return &Assembler{state: StateIdle}
}

// State returns the current lifecycle state.
func (a *Assembler) State() State {
	return a.state
}

// Message returns the in-flight message, or nil before Start.
func (a *Assembler) Message() *model.Message {
	return a.message
}

// FailureReason returns the reason recorded when the assembler discarded.
func (a *Assembler) FailureReason() string {
	return a.reason
}

// Start creates the in-flight placeholder (local ID, empty content) and
// enters Streaming. Calling Start twice is a programming error and panics.
func (a *Assembler) Start(chatID string) *model.Message {
	if a.state != StateIdle {
		panic("assembler started twice")
	}
	a.message = model.NewPendingMessage(chatID)
	a.state = StateStreaming
	return a.message
}

// Apply advances the state machine with one stream event. It reports whether
// the event was terminal. Events arriving after a terminal state are ignored;
// the transport guarantees at most one terminal event, so this only defends
// against misuse.
func (a *Assembler) Apply(ev stream.Event) (terminal bool) {
	if a.state != StateStreaming {
		return false
	}

	switch ev := ev.(type) {
	case stream.Fragment:
		a.message.AppendFragment(ev.Content)
		return false
	case stream.Complete:
		a.message.Finalize(ev.MessageID)
		a.state = StateReconciled
		return true
	case stream.Failure:
		a.reason = ev.Reason
		a.state = StateDiscarded
		return true
	default:
		return false
	}
}

// Cancel forces Discarded from Streaming. Partial content is dropped with
// the placeholder; cancelling a settled assembler is a no-op.
func (a *Assembler) Cancel() {
	if a.state != StateStreaming {
		return
	}
	a.reason = "cancelled"
	a.state = StateDiscarded
}
