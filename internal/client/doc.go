// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client is the HTTP client for the chat API.
//
// It covers the JSON endpoints (chats, messages) and the two streaming
// endpoints. Streaming calls block while delivering decoded events to a
// callback; cancelling the context releases the connection.
//
// # Key Types
//
//   - Client: API client, safe for concurrent use
//   - APIError: typed error carrying the category and server message
//
// # Usage
//
//	c := client.New("http://127.0.0.1:8787")
//	chat, err := c.CreateChat(ctx, "")
//	err = c.StreamMessage(ctx, chat.ID, "hello", func(ev stream.Event) {
//	    // apply fragments, completion, or failure
//	})
package client
