// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm generates AI responses by streaming from a local Ollama server.
//
// The package has two halves: prompt construction (turning chat history and
// reply chains into role-tagged messages) and the streaming client that
// drives Ollama's /api/chat endpoint, emitting content fragments as they
// arrive.
//
// # Key Types
//
//   - Responder: the interface the HTTP server consumes; anything that can
//     stream fragments for a prompt
//   - Client: Ollama-backed Responder
//   - ClientError: typed error with an ErrorType for handling
//
// # Usage
//
//	client := llm.NewClient(llm.DefaultConfig())
//	msgs := llm.BuildSendMessages(history)
//	err := client.Respond(ctx, msgs, func(fragment string) error {
//	    return sw.Fragment(fragment)
//	})
package llm
