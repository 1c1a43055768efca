// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrewchu16/chat-replies/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestCreateAndGetChat(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Project notes")
	require.NoError(t, err)
	require.NotEmpty(t, chat.ID)
	require.Equal(t, "Project notes", chat.Title)

	got, err := st.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Equal(t, chat.ID, got.ID)
	require.Equal(t, chat.Title, got.Title)
}

func TestGetChatNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetChat(context.Background(), "missing")
	require.ErrorIs(t, err, ErrChatNotFound)
}

func TestCreateChatInvalidTitle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateChat(ctx, "   ")
	require.ErrorIs(t, err, model.ErrEmptyTitle)

	_, err = st.CreateChat(ctx, strings.Repeat("t", model.MaxTitleLength+1))
	require.ErrorIs(t, err, model.ErrTitleTooLong)
}

func TestUpdateChatTitle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Old title")
	require.NoError(t, err)

	updated, err := st.UpdateChatTitle(ctx, chat.ID, "New title")
	require.NoError(t, err)
	require.Equal(t, "New title", updated.Title)

	_, err = st.UpdateChatTitle(ctx, "missing", "Anything")
	require.ErrorIs(t, err, ErrChatNotFound)
}

func TestDeleteChatCascades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Doomed")
	require.NoError(t, err)
	msg, err := st.CreateMessage(ctx, chat.ID, model.SenderUser, "hello")
	require.NoError(t, err)

	require.NoError(t, st.DeleteChat(ctx, chat.ID))

	_, err = st.GetChat(ctx, chat.ID)
	require.ErrorIs(t, err, ErrChatNotFound)
	_, err = st.GetMessage(ctx, chat.ID, msg.ID)
	require.ErrorIs(t, err, ErrMessageNotFound)

	require.ErrorIs(t, st.DeleteChat(ctx, chat.ID), ErrChatNotFound)
}

func TestListChatsOrderedByUpdate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.CreateChat(ctx, "First")
	require.NoError(t, err)
	second, err := st.CreateChat(ctx, "Second")
	require.NoError(t, err)

	// Touching first with a new message should float it to the top.
	_, err = st.CreateMessage(ctx, first.ID, model.SenderUser, "bump")
	require.NoError(t, err)

	chats, err := st.ListChats(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.Equal(t, first.ID, chats[0].ID)
	require.Equal(t, second.ID, chats[1].ID)
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestCreateAndListMessages(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Chat")
	require.NoError(t, err)

	m1, err := st.CreateMessage(ctx, chat.ID, model.SenderUser, "first")
	require.NoError(t, err)
	m2, err := st.CreateMessage(ctx, chat.ID, model.SenderAI, "second")
	require.NoError(t, err)

	messages, err := st.ListMessages(ctx, chat.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, m1.ID, messages[0].ID)
	require.Equal(t, m2.ID, messages[1].ID)
	require.Equal(t, model.SenderUser, messages[0].Sender)
	require.Equal(t, model.SenderAI, messages[1].Sender)

	count, err := st.CountMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestListMessagesPagination(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Chat")
	require.NoError(t, err)
	var ids []string
	for i := 0; i < 5; i++ {
		m, err := st.CreateMessage(ctx, chat.ID, model.SenderUser, "message")
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	page, err := st.ListMessages(ctx, chat.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, ids[2], page[0].ID)
	require.Equal(t, ids[3], page[1].ID)
}

func TestListMessagesBefore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Chat")
	require.NoError(t, err)
	var ids []string
	for i := 0; i < 3; i++ {
		m, err := st.CreateMessage(ctx, chat.ID, model.SenderUser, "message")
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	cutoff, err := st.GetMessage(ctx, chat.ID, ids[2])
	require.NoError(t, err)

	older, err := st.ListMessagesBefore(ctx, chat.ID, cutoff.CreatedAt, 10)
	require.NoError(t, err)
	require.Len(t, older, 2)
	require.Equal(t, ids[0], older[0].ID)
	require.Equal(t, ids[1], older[1].ID)

	// The newest qualifying message wins when limited.
	limited, err := st.ListMessagesBefore(ctx, chat.ID, cutoff.CreatedAt, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, ids[1], limited[0].ID)
}

func TestListMessagesUnknownChat(t *testing.T) {
	st := newTestStore(t)

	_, err := st.ListMessages(context.Background(), "missing", 0, 10)
	require.ErrorIs(t, err, ErrChatNotFound)
}

func TestCreateMessageValidation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Chat")
	require.NoError(t, err)

	_, err = st.CreateMessage(ctx, chat.ID, model.SenderUser, "  ")
	require.ErrorIs(t, err, model.ErrEmptyContent)

	_, err = st.CreateMessage(ctx, chat.ID, model.SenderUser,
		strings.Repeat("a", model.MaxContentLength+1))
	require.ErrorIs(t, err, model.ErrContentTooLong)

	_, err = st.CreateMessage(ctx, chat.ID, model.Sender("system"), "hello")
	require.ErrorIs(t, err, model.ErrInvalidSender)

	_, err = st.CreateMessage(ctx, "missing", model.SenderUser, "hello")
	require.ErrorIs(t, err, ErrChatNotFound)
}

// =============================================================================
// REPLY TESTS
// =============================================================================

func TestCreateReplyWithRange(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Chat")
	require.NoError(t, err)
	parent, err := st.CreateMessage(ctx, chat.ID, model.SenderAI, "The sky is blue.")
	require.NoError(t, err)

	reply, err := st.CreateReply(ctx, chat.ID, model.SenderUser, "Why that color?",
		parent.ID, &model.QuoteRange{Start: 4, End: 7})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyMetadata)
	require.Equal(t, parent.ID, reply.ReplyMetadata.ParentID)
	require.Equal(t, reply.ID, reply.ReplyMetadata.MessageID)

	// Round-trip through the store keeps the range.
	got, err := st.GetMessage(ctx, chat.ID, reply.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReplyMetadata)
	require.NotNil(t, got.ReplyMetadata.Range)
	require.Equal(t, 4, got.ReplyMetadata.Range.Start)
	require.Equal(t, 7, got.ReplyMetadata.Range.End)
	require.Equal(t, "sky", got.ReplyMetadata.Range.Slice(parent.Content))
}

func TestCreateReplyWithoutRange(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Chat")
	require.NoError(t, err)
	parent, err := st.CreateMessage(ctx, chat.ID, model.SenderAI, "answer")
	require.NoError(t, err)

	reply, err := st.CreateReply(ctx, chat.ID, model.SenderUser, "follow-up", parent.ID, nil)
	require.NoError(t, err)

	got, err := st.GetMessage(ctx, chat.ID, reply.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReplyMetadata)
	require.Nil(t, got.ReplyMetadata.Range)
}

func TestCreateReplyInvalid(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	chat, err := st.CreateChat(ctx, "Chat")
	require.NoError(t, err)
	parent, err := st.CreateMessage(ctx, chat.ID, model.SenderAI, "short")
	require.NoError(t, err)

	// Unknown parent
	_, err = st.CreateReply(ctx, chat.ID, model.SenderUser, "reply", "missing", nil)
	require.ErrorIs(t, err, ErrMessageNotFound)

	// Range past the parent content
	_, err = st.CreateReply(ctx, chat.ID, model.SenderUser, "reply", parent.ID,
		&model.QuoteRange{Start: 0, End: 99})
	var rangeErr *model.RangeError
	require.ErrorAs(t, err, &rangeErr)

	// Parent in a different chat
	other, err := st.CreateChat(ctx, "Other")
	require.NoError(t, err)
	_, err = st.CreateReply(ctx, other.ID, model.SenderUser, "reply", parent.ID, nil)
	require.ErrorIs(t, err, ErrMessageNotFound)
}
