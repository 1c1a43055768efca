// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the terminal client.
//
// This file defines the Bubble Tea message types used by the chat view:
//   - Session: notifications bridged from the session coordinator
//   - Streaming: render ticks during an active stream
//   - Errors: submission failures surfaced to the user
package chat

import (
	"time"

	"github.com/andrewchu16/chat-replies/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionNotificationMsg delivers one coordinator notification to the view.
type SessionNotificationMsg struct {
	Notification session.Notification
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTickMsg drives periodic re-renders while a stream is active.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// SubmitErrorMsg reports that a send or reply was rejected. Content carries
// the submitted text so the input can be restored.
type SubmitErrorMsg struct {
	Err     error
	Content string
}
