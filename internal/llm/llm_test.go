// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andrewchu16/chat-replies/internal/model"
)

// =============================================================================
// PROMPT TESTS
// =============================================================================

func userMsg(content string) *model.Message {
	return &model.Message{ID: "u", Sender: model.SenderUser, Content: content}
}

func aiMsg(content string) *model.Message {
	return &model.Message{ID: "a", Sender: model.SenderAI, Content: content}
}

func TestBuildSendMessages(t *testing.T) {
	history := []*model.Message{
		userMsg("hello"),
		aiMsg("hi there"),
		userMsg("what's the weather?"),
	}

	msgs := BuildSendMessages(history)
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != SystemPromptSend {
		t.Errorf("msgs[0] = %+v, want send system prompt", msgs[0])
	}
	wantRoles := []string{"system", "user", "assistant", "user"}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("msgs[%d].Role = %q, want %q", i, msgs[i].Role, role)
		}
	}
}

func TestBuildReplyMessagesNote(t *testing.T) {
	parent := aiMsg("The sky is blue because of Rayleigh scattering.")
	chain := []*model.Message{userMsg("why is the sky blue?"), parent}

	msgs := BuildReplyMessages(chain, parent, "tell me more")
	if msgs[0].Role != "system" {
		t.Fatalf("msgs[0].Role = %q, want system", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, SystemPromptReply) {
		t.Error("system message missing reply prompt")
	}
	if !strings.Contains(msgs[0].Content, "The user replied specifically to this text: 'The sky is blue because of Rayleigh scattering.'") {
		t.Errorf("system message missing referenced text note: %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[0].Content, "Their reply content was: 'tell me more'") {
		t.Errorf("system message missing reply content note: %q", msgs[0].Content)
	}

	// Parent content appears again at the end of the history.
	last := msgs[len(msgs)-1]
	if last.Role != "assistant" || last.Content != parent.Content {
		t.Errorf("history tail = %+v, want parent message", last)
	}
}

func TestBuildReplyMessagesElidesLongQuote(t *testing.T) {
	long := strings.Repeat("a", 60) + strings.Repeat("b", 60)
	parent := aiMsg(long)
	chain := []*model.Message{parent}

	msgs := BuildReplyMessages(chain, parent, "ok")
	wantQuote := strings.Repeat("a", 50) + "..." + strings.Repeat("b", 50)
	if !strings.Contains(msgs[0].Content, wantQuote) {
		t.Errorf("long referenced text not elided: %q", msgs[0].Content)
	}
}

func TestContextContentCropsByRange(t *testing.T) {
	msg := userMsg("The sky is blue.")
	msg.ReplyMetadata = &model.ReplyMetadata{
		ParentID: "p",
		Range:    &model.QuoteRange{Start: 4, End: 7},
	}
	if got := contextContent(msg); got != "sky" {
		t.Errorf("contextContent() = %q, want %q", got, "sky")
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestClientRespondStreams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, `{"message": {"role": "assistant", "content": "The sky"}, "done": false}`)
		fmt.Fprintln(w, `{"message": {"role": "assistant", "content": " is blue."}, "done": false}`)
		fmt.Fprintln(w, `{"message": {"role": "assistant", "content": ""}, "done": true}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	var got strings.Builder
	err := client.Respond(context.Background(), []Message{{Role: "user", Content: "hi"}},
		func(fragment string) error {
			got.WriteString(fragment)
			return nil
		})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if got.String() != "The sky is blue." {
		t.Errorf("assembled = %q, want %q", got.String(), "The sky is blue.")
	}
}

func TestClientRespondEmitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message": {"role": "assistant", "content": "x"}, "done": false}`)
		fmt.Fprintln(w, `{"message": {"role": "assistant", "content": "y"}, "done": true}`)
	}))
	defer srv.Close()

	sentinel := errors.New("consumer stopped")
	client := NewClient(Config{BaseURL: srv.URL})
	err := client.Respond(context.Background(), nil, func(string) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Respond error = %v, want emit error passed through", err)
	}
}

func TestClientRespondModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error": "model overloaded"}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	err := client.Respond(context.Background(), nil, func(string) error { return nil })

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("Respond error = %T, want *ClientError", err)
	}
	if clientErr.Type != ErrTypeInvalidResponse {
		t.Errorf("error type = %v, want ErrTypeInvalidResponse", clientErr.Type)
	}
}

func TestClientRespondTruncatedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message": {"role": "assistant", "content": "partial"}, "done": false}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	err := client.Respond(context.Background(), nil, func(string) error { return nil })
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeConnection {
		t.Errorf("Respond error = %v, want connection error on early end", err)
	}
}

func TestCheckRunningDown(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if err := client.CheckRunning(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("CheckRunning error = %v, want ErrNotRunning", err)
	}
}
