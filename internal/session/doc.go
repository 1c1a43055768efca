// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates a chat view: the message list, the in-flight
// AI message, and the single active stream per session.
//
// Two types split the work. The Assembler is the state machine that owns the
// in-flight placeholder message (Idle, Streaming, then Reconciled or
// Discarded) and applies each stream event to it. The Coordinator owns the
// chat and message list, mediates send/reply actions, enforces at most one
// active stream, and rolls the AI side back on failure while keeping the
// user's own message.
//
// # Key Types
//
//   - Assembler: per-stream state machine over the placeholder message
//   - Coordinator: session owner; send/reply entry points
//   - ErrStreamActive: returned when a second stream is attempted
//
// # Usage
//
//	coord := session.NewCoordinator(apiClient)
//	coord.SetObserver(func(n session.Notification) { /* refresh UI */ })
//	if err := coord.Send(ctx, "hello"); err != nil { ... }
//
// The message list is mutated only by the Coordinator and the Assembler it
// owns; observers read snapshots after each notification.
package session
