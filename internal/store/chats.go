// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides SQLite-backed persistence for chats, messages, and
// reply metadata.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewchu16/chat-replies/internal/model"
)

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// CreateChat inserts a new chat with the given title.
func (s *Store) CreateChat(ctx context.Context, title string) (*model.Chat, error) {
	if err := model.ValidateTitle(title); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chat := &model.Chat{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		chat.ID, chat.Title, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	return chat, nil
}

// GetChat fetches a chat by ID.
func (s *Store) GetChat(ctx context.Context, chatID string) (*model.Chat, error) {
	var chat model.Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`, chatID).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

// ListChats returns chats ordered by most recently updated.
func (s *Store) ListChats(ctx context.Context, skip, limit int) ([]*model.Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats
		 ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

// UpdateChatTitle renames a chat.
func (s *Store) UpdateChatTitle(ctx context.Context, chatID, title string) (*model.Chat, error) {
	if err := model.ValidateTitle(title); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to update chat title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrChatNotFound
	}
	return s.GetChat(ctx, chatID)
}

// DeleteChat removes a chat and, through foreign keys, all its messages and
// reply metadata.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChatNotFound
	}
	return nil
}

// touchChat bumps a chat's updated_at inside an existing transaction.
func touchChat(ctx context.Context, tx *sql.Tx, chatID string, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ?`, now, chatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChatNotFound
	}
	return nil
}
