// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API for chats, messages, and streamed
// AI replies.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andrewchu16/chat-replies/internal/model"
)

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

type createChatRequest struct {
	Title string `json:"title"`
}

type updateChatRequest struct {
	Title string `json:"title"`
}

type createMessageRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

type replyMetadataRequest struct {
	ParentID   string `json:"parent_id"`
	StartIndex *int   `json:"start_index"`
	EndIndex   *int   `json:"end_index"`
}

type createReplyRequest struct {
	Content       string                `json:"content"`
	Sender        string                `json:"sender"`
	ReplyMetadata *replyMetadataRequest `json:"reply_metadata,omitempty"`
}

type messagesListResponse struct {
	Messages []*model.Message `json:"messages"`
	Total    int              `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		req.Title = model.DefaultChatTitle(time.Now())
	}

	chat, err := s.store.CreateChat(r.Context(), req.Title)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	chats, err := s.store.ListChats(r.Context(), skip, limit)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	if chats == nil {
		chats = []*model.Chat{}
	}
	s.writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.store.GetChat(r.Context(), r.PathValue("chat_id"))
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chat)
}

func (s *Server) handleUpdateChat(w http.ResponseWriter, r *http.Request) {
	var req updateChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chat, err := s.store.UpdateChatTitle(r.Context(), r.PathValue("chat_id"), req.Title)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chat)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteChat(r.Context(), r.PathValue("chat_id")); err != nil {
		s.writeErrorFor(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// MESSAGE HANDLERS
// ============================================================================

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chat_id")
	skip, limit := pagination(r)

	messages, err := s.store.ListMessages(r.Context(), chatID, skip, limit)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	total, err := s.store.CountMessages(r.Context(), chatID)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}
	s.writeJSON(w, http.StatusOK, messagesListResponse{
		Messages: messages,
		Total:    total,
		Skip:     skip,
		Limit:    limit,
	})
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.store.GetMessage(r.Context(), r.PathValue("chat_id"), r.PathValue("message_id"))
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := s.store.CreateMessage(r.Context(), r.PathValue("chat_id"), model.Sender(req.Sender), req.Content)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	var req createReplyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := s.createReplyMessage(r, r.PathValue("chat_id"), r.PathValue("message_id"), &req)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, msg)
}

// createReplyMessage persists a user reply. The path's message_id names the
// parent; an optional body range narrows the quoted text.
func (s *Server) createReplyMessage(r *http.Request, chatID, parentID string, req *createReplyRequest) (*model.Message, error) {
	sender := model.Sender(req.Sender)
	if req.Sender == "" {
		sender = model.SenderUser
	}

	var quote *model.QuoteRange
	if req.ReplyMetadata != nil && req.ReplyMetadata.StartIndex != nil && req.ReplyMetadata.EndIndex != nil {
		quote = &model.QuoteRange{
			Start: *req.ReplyMetadata.StartIndex,
			End:   *req.ReplyMetadata.EndIndex,
		}
	}

	return s.store.CreateReply(r.Context(), chatID, sender, req.Content, parentID, quote)
}

// ============================================================================
// HEALTH
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: Version})
}

// ============================================================================
// HELPERS
// ============================================================================

// pagination reads skip/limit query parameters with sane defaults.
func pagination(r *http.Request) (skip, limit int) {
	skip = 0
	limit = 100
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return skip, limit
}
