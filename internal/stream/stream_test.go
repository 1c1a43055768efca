// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

// collect runs a reader over input and returns the delivered events.
func collect(t *testing.T, input string) []Event {
	t.Helper()
	var events []Event
	err := NewReader(strings.NewReader(input)).Process(context.Background(), func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return events
}

// =============================================================================
// READER TESTS
// =============================================================================

func TestReaderFragmentsThenComplete(t *testing.T) {
	input := "data: {\"content\": \"The sky\", \"is_final\": false, \"message_id\": null}\n\n" +
		"data: {\"content\": \" is blue.\", \"is_final\": false, \"message_id\": null}\n\n" +
		"data: {\"content\": \"\", \"is_final\": true, \"message_id\": \"uuid-1\"}\n\n"

	events := collect(t, input)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(events), events)
	}
	if f, ok := events[0].(Fragment); !ok || f.Content != "The sky" {
		t.Errorf("events[0] = %v, want Fragment{The sky}", events[0])
	}
	if f, ok := events[1].(Fragment); !ok || f.Content != " is blue." {
		t.Errorf("events[1] = %v, want Fragment{ is blue.}", events[1])
	}
	if c, ok := events[2].(Complete); !ok || c.MessageID != "uuid-1" {
		t.Errorf("events[2] = %v, want Complete{uuid-1}", events[2])
	}
}

func TestReaderFinalChunkWithTrailingContent(t *testing.T) {
	input := "data: {\"content\": \"tail\", \"is_final\": true, \"message_id\": \"uuid-2\"}\n\n"

	events := collect(t, input)
	if len(events) != 2 {
		t.Fatalf("got %d events, want Fragment then Complete: %v", len(events), events)
	}
	if f, ok := events[0].(Fragment); !ok || f.Content != "tail" {
		t.Errorf("events[0] = %v, want trailing Fragment", events[0])
	}
	if c, ok := events[1].(Complete); !ok || c.MessageID != "uuid-2" {
		t.Errorf("events[1] = %v, want Complete{uuid-2}", events[1])
	}
}

func TestReaderErrorFrame(t *testing.T) {
	input := "data: {\"content\": \"partial\", \"is_final\": false, \"message_id\": null}\n\n" +
		"data: {\"error\": \"model unavailable\"}\n\n"

	events := collect(t, input)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(events), events)
	}
	if f, ok := events[1].(Failure); !ok || f.Reason != "model unavailable" {
		t.Errorf("events[1] = %v, want Failure{model unavailable}", events[1])
	}
}

func TestReaderMalformedJSON(t *testing.T) {
	input := "data: {not json}\n\n"

	events := collect(t, input)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(events), events)
	}
	if f, ok := events[0].(Failure); !ok || f.Reason != ReasonParseFailure {
		t.Errorf("events[0] = %v, want Failure{%s}", events[0], ReasonParseFailure)
	}
}

func TestReaderSilentClose(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty stream", ""},
		{"fragments without terminal", "data: {\"content\": \"x\", \"is_final\": false, \"message_id\": null}\n\n"},
		{"truncated mid frame", "data: {\"content\": \"x\", \"is_f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := collect(t, tt.input)
			if len(events) == 0 {
				t.Fatal("expected at least one event")
			}
			last := events[len(events)-1]
			f, ok := last.(Failure)
			if !ok {
				t.Fatalf("last event = %v, want Failure", last)
			}
			if f.Reason != ReasonUnexpectedEnd && f.Reason != ReasonParseFailure {
				t.Errorf("reason = %q, want synthesized terminal reason", f.Reason)
			}
		})
	}
}

func TestReaderIgnoresCommentsAndUnknownFields(t *testing.T) {
	input := ": keep-alive\n\n" +
		"event: message\n" +
		"data: {\"content\": \"\", \"is_final\": true, \"message_id\": \"uuid-3\"}\n\n"

	events := collect(t, input)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(events), events)
	}
	if c, ok := events[0].(Complete); !ok || c.MessageID != "uuid-3" {
		t.Errorf("events[0] = %v, want Complete{uuid-3}", events[0])
	}
}

func TestReaderCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var events []Event
	err := NewReader(strings.NewReader("data: {\"content\": \"x\", \"is_final\": false, \"message_id\": null}\n\n")).
		Process(ctx, func(ev Event) { events = append(events, ev) })
	if err != context.Canceled {
		t.Errorf("Process error = %v, want context.Canceled", err)
	}
	if len(events) != 0 {
		t.Errorf("cancelled stream delivered %d events, want 0", len(events))
	}
}

// =============================================================================
// WRITER TESTS
// =============================================================================

func TestWriterRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := w.Fragment("hello"); err != nil {
		t.Fatalf("Fragment failed: %v", err)
	}
	if err := w.Complete("uuid-9"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}

	// The written frames decode back into the same events.
	events := collect(t, rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("round trip produced %d events, want 2: %v", len(events), events)
	}
	if f, ok := events[0].(Fragment); !ok || f.Content != "hello" {
		t.Errorf("events[0] = %v, want Fragment{hello}", events[0])
	}
	if c, ok := events[1].(Complete); !ok || c.MessageID != "uuid-9" {
		t.Errorf("events[1] = %v, want Complete{uuid-9}", events[1])
	}
}

func TestWriterFailFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.Fail("something broke"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	events := collect(t, rec.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if f, ok := events[0].(Failure); !ok || f.Reason != "something broke" {
		t.Errorf("events[0] = %v, want Failure{something broke}", events[0])
	}
}
