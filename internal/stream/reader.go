// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the server-to-client event stream carrying
// incremental AI output.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// =============================================================================
// STREAM READER
// =============================================================================

// dataPrefix is the SSE frame marker.
var dataPrefix = []byte("data: ")

// Reader decodes SSE frames from an io.Reader into Events.
type Reader struct {
	reader *bufio.Reader
}

// NewReader creates a stream reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Process reads frames and calls the callback for each decoded event,
// blocking until a terminal event has been delivered or the context is
// cancelled.
//
// The callback always receives exactly one terminal event, except under
// cancellation: a malformed frame or a connection that closes early is
// converted into a Failure rather than an error return. The returned error
// is non-nil only for context cancellation, where no terminal event is
// synthesized because the consumer is discarding the stream anyway.
func (r *Reader) Process(ctx context.Context, callback func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			callback(Failure{Reason: ReasonUnexpectedEnd})
			return nil
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == ':' {
			// Blank separator or SSE comment
			if err == io.EOF {
				callback(Failure{Reason: ReasonUnexpectedEnd})
				return nil
			}
			continue
		}

		payload := bytes.TrimPrefix(line, dataPrefix)
		if len(payload) == len(line) {
			// Not a data frame; ignore unknown SSE fields
			if err == io.EOF {
				callback(Failure{Reason: ReasonUnexpectedEnd})
				return nil
			}
			continue
		}

		var chunk Chunk
		if jsonErr := json.Unmarshal(payload, &chunk); jsonErr != nil {
			callback(Failure{Reason: ReasonParseFailure})
			return nil
		}

		if terminal := emit(chunk, callback); terminal {
			return nil
		}

		if err == io.EOF {
			callback(Failure{Reason: ReasonUnexpectedEnd})
			return nil
		}
	}
}

// emit maps a decoded chunk onto events. Returns true when the chunk was
// terminal.
func emit(chunk Chunk, callback func(Event)) bool {
	if chunk.Error != "" {
		callback(Failure{Reason: chunk.Error})
		return true
	}

	// Trailing content on a final chunk is still applied before completing.
	if chunk.Content != "" {
		callback(Fragment{Content: chunk.Content})
	}

	if chunk.IsFinal {
		var id string
		if chunk.MessageID != nil {
			id = *chunk.MessageID
		}
		callback(Complete{MessageID: id})
		return true
	}
	return false
}
