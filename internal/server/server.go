// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API for chats, messages, and streamed
// AI replies.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/andrewchu16/chat-replies/internal/chain"
	"github.com/andrewchu16/chat-replies/internal/llm"
	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/store"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8787

	// MaxRequestBodySize caps request bodies to prevent DoS (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second

	// Version is the server version.
	Version = "0.1.0"
)

// ============================================================================
// SERVER
// ============================================================================

// Server serves the chat API over HTTP.
type Server struct {
	store     *store.Store
	responder llm.Responder
	resolver  *chain.Resolver
	router    *http.ServeMux
	server    *http.Server
	port      int
}

// NewServer creates a server over the given store and responder.
func NewServer(st *store.Store, responder llm.Responder, port int) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		store:     st,
		responder: responder,
		resolver:  chain.NewResolver(st),
		router:    http.NewServeMux(),
		port:      port,
	}
	s.registerRoutes()
	return s
}

// registerRoutes wires all endpoints.
func (s *Server) registerRoutes() {
	s.router.HandleFunc("POST /chats", s.handleCreateChat)
	s.router.HandleFunc("GET /chats", s.handleListChats)
	s.router.HandleFunc("GET /chats/{chat_id}", s.handleGetChat)
	s.router.HandleFunc("PUT /chats/{chat_id}", s.handleUpdateChat)
	s.router.HandleFunc("DELETE /chats/{chat_id}", s.handleDeleteChat)

	s.router.HandleFunc("GET /chats/{chat_id}/messages", s.handleListMessages)
	s.router.HandleFunc("GET /chats/{chat_id}/messages/{message_id}", s.handleGetMessage)
	s.router.HandleFunc("POST /chats/{chat_id}/messages", s.handleCreateMessage)
	s.router.HandleFunc("POST /chats/{chat_id}/messages/{message_id}/reply", s.handleCreateReply)

	s.router.HandleFunc("POST /chats/{chat_id}/messages/stream", s.handleStreamMessage)
	s.router.HandleFunc("POST /chats/{chat_id}/messages/{message_id}/reply/stream", s.handleStreamReply)

	s.router.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the full handler with middleware applied. Exposed for
// tests with httptest.
func (s *Server) Handler() http.Handler {
	middleware := Chain(
		RecoveryMiddleware(),
		CORSMiddleware(DefaultCORSConfig()),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(NewRateLimiter(DefaultRateLimit, DefaultRateBurst)),
	)
	return middleware(s.router)
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s version=%s", addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

// errorResponse is the JSON body for all error responses.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | error=%v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// writeErrorFor maps domain errors onto HTTP statuses.
func (s *Server) writeErrorFor(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrChatNotFound), errors.Is(err, store.ErrMessageNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case isValidationError(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chain.ErrCyclicReply):
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		log.Printf("REQUEST_FAILED | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// isValidationError reports whether err is a client-input problem.
func isValidationError(err error) bool {
	var rangeErr *model.RangeError
	return errors.Is(err, model.ErrEmptyContent) ||
		errors.Is(err, model.ErrContentTooLong) ||
		errors.Is(err, model.ErrInvalidSender) ||
		errors.Is(err, model.ErrEmptyTitle) ||
		errors.Is(err, model.ErrTitleTooLong) ||
		errors.As(err, &rangeErr)
}

// decodeBody decodes a JSON request body with a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
