// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, and replies.
//
// This package defines the core domain types used by both the server and the
// terminal client.
//
// # Key Types
//
//   - Chat: a conversation container grouping ordered Messages
//   - Message: a single message with sender, content, and timestamp; supports
//     an in-flight streaming state used while an AI reply is being assembled
//   - ReplyMetadata: links a reply message to its parent, optionally quoting
//     a sub-range of the parent's content
//   - Sender: message sender enumeration (user, ai)
//
// # Usage
//
// Create a pending AI message and stream content into it:
//
//	msg := model.NewPendingMessage(chatID)
//	msg.AppendFragment("Hello")
//	msg.Finalize("server-assigned-id")
package model
