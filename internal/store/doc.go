// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides SQLite-backed persistence for chats, messages, and
// reply metadata.
//
// The store is the single source of truth for settled entities: user and AI
// messages, reply links between them, and the chats that contain them.
// In-flight streaming state never touches the store; an AI message row is
// written only once its stream completes.
//
// # Key Types
//
//   - Store: database handle with chat, message, and reply operations
//   - ErrChatNotFound, ErrMessageNotFound: sentinel lookup errors
//
// # Usage
//
//	st, err := store.Open(dbPath)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	chat, err := st.CreateChat(ctx, "Project notes")
//	msg, err := st.CreateMessage(ctx, chat.ID, model.SenderUser, "hello")
//
// All operations accept a context.Context and are safe for concurrent use;
// SQLite serializes writers through a single connection.
package store
