// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API for chats, messages, and streamed
// AI replies.
//
// Endpoints:
//   - POST   /chats                                  - Create a chat
//   - GET    /chats                                  - List chats
//   - GET    /chats/{chat_id}                        - Get a chat
//   - PUT    /chats/{chat_id}                        - Rename a chat
//   - GET    /chats/{chat_id}/messages               - List messages
//   - GET    /chats/{chat_id}/messages/{message_id}  - Get a message
//   - POST   /chats/{chat_id}/messages               - Create a message
//   - POST   /chats/{chat_id}/messages/stream        - Send and stream the AI reply
//   - POST   /chats/{chat_id}/messages/{message_id}/reply          - Create a reply
//   - POST   /chats/{chat_id}/messages/{message_id}/reply/stream   - Reply and stream
//   - GET    /healthz                                - Health check
//
// Streaming endpoints respond with Server-Sent Events: incremental content
// fragments followed by exactly one terminal frame (completion with the
// persisted message ID, or an error).
package server
