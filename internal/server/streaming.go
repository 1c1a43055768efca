// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API for chats, messages, and streamed
// AI replies.
package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/andrewchu16/chat-replies/internal/llm"
	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/stream"
)

// ============================================================================
// STREAMING HANDLERS
// ============================================================================

// handleStreamMessage persists the user's message, then streams the AI
// response as SSE frames. The assembled AI message is persisted only on
// successful completion; the terminal frame carries its ID.
func (s *Server) handleStreamMessage(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chat_id")

	var req createMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Persist the user message before any stream output. Failures here are
	// plain JSON errors since no SSE frame has been written yet.
	if _, err := s.store.CreateMessage(r.Context(), chatID, model.SenderUser, req.Content); err != nil {
		s.writeErrorFor(w, err)
		return
	}

	history, err := s.store.ListMessages(r.Context(), chatID, 0, maxHistoryMessages)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}

	s.streamResponse(w, r, chatID, llm.BuildSendMessages(history))
}

// handleStreamReply persists the user's reply (with its metadata), then
// streams the AI response using the resolved reply chain as context.
func (s *Server) handleStreamReply(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chat_id")
	parentID := r.PathValue("message_id")

	var req createReplyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.createReplyMessage(r, chatID, parentID, &req); err != nil {
		s.writeErrorFor(w, err)
		return
	}

	// Context resolution happens before the stream opens so integrity and
	// lookup failures surface as plain errors, never as half-open streams.
	chainContext, err := s.resolver.ResolveContext(r.Context(), chatID, parentID)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	parent, err := s.store.GetMessage(r.Context(), chatID, parentID)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}

	s.streamResponse(w, r, chatID, llm.BuildReplyMessages(chainContext, parent, req.Content))
}

// maxHistoryMessages caps how much chat history feeds a plain send prompt.
const maxHistoryMessages = 50

// streamResponse drives the responder and frames its output as SSE. Exactly
// one terminal frame is written: a completion carrying the persisted message
// ID, or an error.
func (s *Server) streamResponse(w http.ResponseWriter, r *http.Request, chatID string, prompt []llm.Message) {
	sw, err := stream.NewWriter(w)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var content strings.Builder
	respondErr := s.responder.Respond(r.Context(), prompt, func(fragment string) error {
		content.WriteString(fragment)
		return sw.Fragment(fragment)
	})

	if respondErr != nil {
		// Client gone: nothing to write, nothing to persist.
		if r.Context().Err() != nil {
			log.Printf("STREAM_CANCELLED | chat=%s", chatID)
			return
		}
		log.Printf("STREAM_FAILED | chat=%s error=%v", chatID, respondErr)
		sw.Fail(respondErr.Error())
		return
	}

	assembled := strings.TrimSpace(content.String())
	if assembled == "" {
		sw.Fail("model produced no content")
		return
	}

	// Persistence must not be tied to the request context; the response is
	// complete and should survive a client that disconnects right after.
	aiMsg, err := s.store.CreateMessage(context.WithoutCancel(r.Context()), chatID, model.SenderAI, assembled)
	if err != nil {
		log.Printf("STREAM_PERSIST_FAILED | chat=%s error=%v", chatID, err)
		sw.Fail("failed to store response")
		return
	}

	sw.Complete(aiMsg.ID)
}
