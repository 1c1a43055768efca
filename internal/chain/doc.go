// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chain resolves reply chains into ordered message context.
//
// A reply chain is the sequence of messages reached by following parent
// links from a starting message back to a message that replies to nothing.
// The resolver walks that graph with a visited set, so cycles surface as
// an integrity error, and a hard length bound caps the context even if
// the cycle check were bypassed.
//
// # Key Types
//
//   - Resolver: walks parent links via a message Source
//   - Source: the read-only store surface the resolver consumes
//   - ErrCyclicReply: reported when reply metadata forms a cycle
//
// # Usage
//
//	r := chain.NewResolver(st)
//	msgs, err := r.Resolve(ctx, chatID, messageID) // root-first
//
// Resolution is a pure read; it never mutates the store.
package chain
