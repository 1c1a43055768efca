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
// MESSAGE OPERATIONS
// =============================================================================

// CreateMessage inserts a settled message into a chat and bumps the chat's
// updated_at timestamp. Content is validated against the length constraints.
func (s *Store) CreateMessage(ctx context.Context, chatID string, sender model.Sender, content string) (*model.Message, error) {
	if !sender.Valid() {
		return nil, model.ErrInvalidSender
	}
	if err := model.ValidateContent(content); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := &model.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Sender:    sender,
		Content:   content,
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchChat(ctx, tx, chatID, now); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, sender, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.Sender.String(), msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return msg, nil
}

// CreateReply inserts a message together with its reply metadata in a single
// transaction. The parent must exist in the same chat, and the optional range
// must be valid against the parent's content.
func (s *Store) CreateReply(ctx context.Context, chatID string, sender model.Sender, content, parentID string, quote *model.QuoteRange) (*model.Message, error) {
	if !sender.Valid() {
		return nil, model.ErrInvalidSender
	}
	if err := model.ValidateContent(content); err != nil {
		return nil, err
	}

	parent, err := s.GetMessage(ctx, chatID, parentID)
	if err != nil {
		return nil, err
	}
	if quote != nil {
		if err := quote.Validate(parent.Content); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	msg := &model.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Sender:    sender,
		Content:   content,
		CreatedAt: now,
		ReplyMetadata: &model.ReplyMetadata{
			ID:        uuid.NewString(),
			ParentID:  parentID,
			Range:     quote,
			CreatedAt: now,
		},
	}
	msg.ReplyMetadata.MessageID = msg.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchChat(ctx, tx, chatID, now); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, sender, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.Sender.String(), msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	var start, end sql.NullInt64
	if quote != nil {
		start = sql.NullInt64{Int64: int64(quote.Start), Valid: true}
		end = sql.NullInt64{Int64: int64(quote.End), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reply_metadata (id, message_id, parent_id, start_index, end_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ReplyMetadata.ID, msg.ID, parentID, start, end, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return msg, nil
}

// GetMessage fetches a message by ID, scoped to a chat. Reply metadata is
// attached when present.
func (s *Store) GetMessage(ctx context.Context, chatID, messageID string) (*model.Message, error) {
	var msg model.Message
	var sender string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, chat_id, sender, content, created_at FROM messages
		 WHERE id = ? AND chat_id = ?`, messageID, chatID).
		Scan(&msg.ID, &msg.ChatID, &sender, &msg.Content, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	msg.Sender = model.Sender(sender)

	meta, err := s.GetReplyMetadata(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	msg.ReplyMetadata = meta
	return &msg, nil
}

// ListMessages returns a chat's messages in chronological order. Ties on
// created_at break on id so pagination is stable.
func (s *Store) ListMessages(ctx context.Context, chatID string, skip, limit int) ([]*model.Message, error) {
	if _, err := s.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.chat_id, m.sender, m.content, m.created_at,
		        r.id, r.parent_id, r.start_index, r.end_index, r.created_at
		 FROM messages m
		 LEFT JOIN reply_metadata r ON r.message_id = m.id
		 WHERE m.chat_id = ?
		 ORDER BY m.created_at ASC, m.id ASC
		 LIMIT ? OFFSET ?`, chatID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()
	return scanMessageRows(rows)
}

// ListMessagesBefore returns up to limit messages created strictly before the
// given timestamp, in chronological order. The newest qualifying messages are
// kept when more than limit exist.
func (s *Store) ListMessagesBefore(ctx context.Context, chatID string, before time.Time, limit int) ([]*model.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.chat_id, m.sender, m.content, m.created_at,
		        r.id, r.parent_id, r.start_index, r.end_index, r.created_at
		 FROM messages m
		 LEFT JOIN reply_metadata r ON r.message_id = m.id
		 WHERE m.chat_id = ? AND m.created_at < ?
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT ?`, chatID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessageRows(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func scanMessageRows(rows *sql.Rows) ([]*model.Message, error) {
	var messages []*model.Message
	for rows.Next() {
		var msg model.Message
		var sender string
		var metaID, parentID sql.NullString
		var start, end sql.NullInt64
		var metaCreated sql.NullTime
		err := rows.Scan(&msg.ID, &msg.ChatID, &sender, &msg.Content, &msg.CreatedAt,
			&metaID, &parentID, &start, &end, &metaCreated)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Sender = model.Sender(sender)
		if metaID.Valid {
			msg.ReplyMetadata = buildReplyMetadata(metaID.String, msg.ID, parentID.String, start, end, metaCreated.Time)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// CountMessages returns the number of messages in a chat.
func (s *Store) CountMessages(ctx context.Context, chatID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// GetReplyMetadata fetches the reply metadata owned by a message, or nil when
// the message is not a reply.
func (s *Store) GetReplyMetadata(ctx context.Context, messageID string) (*model.ReplyMetadata, error) {
	var id, parentID string
	var start, end sql.NullInt64
	var created time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT id, parent_id, start_index, end_index, created_at
		 FROM reply_metadata WHERE message_id = ?`, messageID).
		Scan(&id, &parentID, &start, &end, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reply metadata: %w", err)
	}
	return buildReplyMetadata(id, messageID, parentID, start, end, created), nil
}

func buildReplyMetadata(id, messageID, parentID string, start, end sql.NullInt64, created time.Time) *model.ReplyMetadata {
	meta := &model.ReplyMetadata{
		ID:        id,
		MessageID: messageID,
		ParentID:  parentID,
		CreatedAt: created,
	}
	if start.Valid && end.Valid {
		meta.Range = &model.QuoteRange{Start: int(start.Int64), End: int(end.Int64)}
	}
	return meta
}
