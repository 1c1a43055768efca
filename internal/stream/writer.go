// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the server-to-client event stream carrying
// incremental AI output.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// STREAM WRITER
// =============================================================================

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// Writer frames events onto an HTTP response using SSE framing.
// Every frame is flushed immediately so fragments reach the client as they
// are produced.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares a ResponseWriter for SSE and returns a Writer over it.
// SSE headers are written here; the caller must not write the response
// afterwards except through this Writer.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &Writer{w: w, flusher: flusher}, nil
}

// Fragment sends one incremental content frame.
func (sw *Writer) Fragment(content string) error {
	return sw.send(Chunk{Content: content})
}

// Complete sends the terminal success frame carrying the persisted message ID.
func (sw *Writer) Complete(messageID string) error {
	return sw.send(Chunk{IsFinal: true, MessageID: &messageID})
}

// Fail sends the terminal error frame.
func (sw *Writer) Fail(reason string) error {
	return sw.send(Chunk{Error: reason})
}

// send marshals and flushes a single SSE frame.
func (sw *Writer) send(chunk Chunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to encode stream chunk: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", data); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}
