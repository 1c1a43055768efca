// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrewchu16/chat-replies/internal/llm"
	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/store"
	"github.com/andrewchu16/chat-replies/internal/stream"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// scriptedResponder replays fixed fragments and records the prompt it saw.
type scriptedResponder struct {
	fragments []string
	err       error
	lastSeen  []llm.Message
}

func (f *scriptedResponder) Respond(_ context.Context, messages []llm.Message, emit func(string) error) error {
	f.lastSeen = messages
	for _, frag := range f.fragments {
		if err := emit(frag); err != nil {
			return err
		}
	}
	return f.err
}

type fixture struct {
	store     *store.Store
	responder *scriptedResponder
	server    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	responder := &scriptedResponder{fragments: []string{"The sky", " is blue."}}
	srv := httptest.NewServer(NewServer(st, responder, 0).Handler())
	t.Cleanup(srv.Close)

	return &fixture{store: st, responder: responder, server: srv}
}

func (f *fixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *fixture) createChat(t *testing.T) *model.Chat {
	t.Helper()
	resp := f.post(t, "/chats", createChatRequest{Title: "Test chat"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	chat := decode[*model.Chat](t, resp)
	return chat
}

// collectStream drains an SSE response into events.
func collectStream(t *testing.T, resp *http.Response) []stream.Event {
	t.Helper()
	defer resp.Body.Close()
	var events []stream.Event
	err := stream.NewReader(resp.Body).Process(context.Background(), func(ev stream.Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	return events
}

// =============================================================================
// CHAT ENDPOINT TESTS
// =============================================================================

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[healthResponse](t, resp)
	require.Equal(t, "ok", health.Status)
}

func TestChatLifecycle(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	resp := f.get(t, "/chats/"+chat.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[*model.Chat](t, resp)
	require.Equal(t, chat.ID, got.ID)

	// Rename
	data, _ := json.Marshal(updateChatRequest{Title: "Renamed"})
	req, err := http.NewRequest(http.MethodPut, f.server.URL+"/chats/"+chat.ID, bytes.NewReader(data))
	require.NoError(t, err)
	renameResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, renameResp.StatusCode)
	renamed := decode[*model.Chat](t, renameResp)
	require.Equal(t, "Renamed", renamed.Title)

	// List
	listResp := f.get(t, "/chats")
	chats := decode[[]*model.Chat](t, listResp)
	require.Len(t, chats, 1)
}

func TestCreateChatDefaultTitle(t *testing.T) {
	f := newFixture(t)
	resp := f.post(t, "/chats", createChatRequest{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	chat := decode[*model.Chat](t, resp)
	require.True(t, strings.HasPrefix(chat.Title, "Chat "))
}

func TestDeleteChat(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	req, err := http.NewRequest(http.MethodDelete, f.server.URL+"/chats/"+chat.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp := f.get(t, "/chats/"+chat.ID)
	require.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()

	// Deleting again reports not found.
	req, err = http.NewRequest(http.MethodDelete, f.server.URL+"/chats/"+chat.ID, nil)
	require.NoError(t, err)
	again, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	again.Body.Close()
	require.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestGetChatNotFound(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/chats/missing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	require.Equal(t, "chat not found", body["error"])
}

// =============================================================================
// MESSAGE ENDPOINT TESTS
// =============================================================================

func TestCreateAndListMessages(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	resp := f.post(t, "/chats/"+chat.ID+"/messages",
		createMessageRequest{Content: "hello", Sender: "user"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := decode[*model.Message](t, resp)
	require.Equal(t, "hello", msg.Content)

	listResp := f.get(t, "/chats/"+chat.ID+"/messages")
	list := decode[messagesListResponse](t, listResp)
	require.Equal(t, 1, list.Total)
	require.Len(t, list.Messages, 1)
}

func TestCreateMessageValidation(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	resp := f.post(t, "/chats/"+chat.ID+"/messages",
		createMessageRequest{Content: "   ", Sender: "user"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = f.post(t, "/chats/"+chat.ID+"/messages",
		createMessageRequest{Content: "hi", Sender: "robot"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateReplyEndpoint(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	parentResp := f.post(t, "/chats/"+chat.ID+"/messages",
		createMessageRequest{Content: "The sky is blue.", Sender: "ai"})
	parent := decode[*model.Message](t, parentResp)

	start, end := 4, 7
	resp := f.post(t, "/chats/"+chat.ID+"/messages/"+parent.ID+"/reply",
		createReplyRequest{
			Content: "why?",
			Sender:  "user",
			ReplyMetadata: &replyMetadataRequest{
				ParentID:   parent.ID,
				StartIndex: &start,
				EndIndex:   &end,
			},
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reply := decode[*model.Message](t, resp)
	require.NotNil(t, reply.ReplyMetadata)
	require.Equal(t, parent.ID, reply.ReplyMetadata.ParentID)
	require.Equal(t, 4, reply.ReplyMetadata.Range.Start)

	// Out-of-range quote is rejected before anything streams.
	badStart, badEnd := 0, 9999
	badResp := f.post(t, "/chats/"+chat.ID+"/messages/"+parent.ID+"/reply",
		createReplyRequest{
			Content:       "bad",
			Sender:        "user",
			ReplyMetadata: &replyMetadataRequest{StartIndex: &badStart, EndIndex: &badEnd},
		})
	require.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	badResp.Body.Close()

	// Reply to a message that does not exist.
	missingResp := f.post(t, "/chats/"+chat.ID+"/messages/nope/reply",
		createReplyRequest{Content: "hi", Sender: "user"})
	require.Equal(t, http.StatusNotFound, missingResp.StatusCode)
	missingResp.Body.Close()
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestStreamMessage(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	resp := f.post(t, "/chats/"+chat.ID+"/messages/stream",
		createMessageRequest{Content: "what color is the sky?", Sender: "user"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := collectStream(t, resp)
	require.GreaterOrEqual(t, len(events), 3)

	var assembled strings.Builder
	var completed *stream.Complete
	for _, ev := range events {
		switch ev := ev.(type) {
		case stream.Fragment:
			assembled.WriteString(ev.Content)
		case stream.Complete:
			c := ev
			completed = &c
		case stream.Failure:
			t.Fatalf("unexpected failure event: %v", ev)
		}
	}
	require.Equal(t, "The sky is blue.", assembled.String())
	require.NotNil(t, completed)

	// The terminal frame names the persisted AI message.
	aiMsg, err := f.store.GetMessage(context.Background(), chat.ID, completed.MessageID)
	require.NoError(t, err)
	require.Equal(t, model.SenderAI, aiMsg.Sender)
	require.Equal(t, "The sky is blue.", aiMsg.Content)

	// Both user message and AI message are in the chat, in order.
	messages, err := f.store.ListMessages(context.Background(), chat.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, model.SenderUser, messages[0].Sender)
	require.Equal(t, model.SenderAI, messages[1].Sender)
}

func TestStreamMessageValidationBeforeStream(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	resp := f.post(t, "/chats/"+chat.ID+"/messages/stream",
		createMessageRequest{Content: "", Sender: "user"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEqual(t, "text/event-stream", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	// Nothing persisted.
	count, err := f.store.CountMessages(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestStreamMessageResponderFailure(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)
	f.responder.fragments = []string{"partial"}
	f.responder.err = errors.New("model unavailable")

	resp := f.post(t, "/chats/"+chat.ID+"/messages/stream",
		createMessageRequest{Content: "hi", Sender: "user"})
	events := collectStream(t, resp)

	last := events[len(events)-1]
	failure, ok := last.(stream.Failure)
	require.True(t, ok, "last event should be a failure, got %v", last)
	require.Equal(t, "model unavailable", failure.Reason)

	// The user message is kept; no AI message was persisted.
	messages, err := f.store.ListMessages(context.Background(), chat.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, model.SenderUser, messages[0].Sender)
}

func TestStreamReply(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	parentResp := f.post(t, "/chats/"+chat.ID+"/messages",
		createMessageRequest{Content: "The sky is blue.", Sender: "ai"})
	parent := decode[*model.Message](t, parentResp)

	start, end := 4, 7
	resp := f.post(t, fmt.Sprintf("/chats/%s/messages/%s/reply/stream", chat.ID, parent.ID),
		createReplyRequest{
			Content: "tell me more",
			Sender:  "user",
			ReplyMetadata: &replyMetadataRequest{
				ParentID:   parent.ID,
				StartIndex: &start,
				EndIndex:   &end,
			},
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := collectStream(t, resp)
	_, ok := events[len(events)-1].(stream.Complete)
	require.True(t, ok, "stream should complete, got %v", events)

	// The responder saw the reply system prompt with the quoted text.
	require.NotEmpty(t, f.responder.lastSeen)
	system := f.responder.lastSeen[0]
	require.Equal(t, "system", system.Role)
	require.Contains(t, system.Content, llm.SystemPromptReply)
	require.Contains(t, system.Content, "tell me more")

	// Chat now holds parent, user reply (with metadata), and AI response.
	messages, err := f.store.ListMessages(context.Background(), chat.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.NotNil(t, messages[1].ReplyMetadata)
	require.Equal(t, parent.ID, messages[1].ReplyMetadata.ParentID)
	require.Equal(t, model.SenderAI, messages[2].Sender)
}

func TestStreamReplyParentNotFound(t *testing.T) {
	f := newFixture(t)
	chat := f.createChat(t)

	resp := f.post(t, "/chats/"+chat.ID+"/messages/missing/reply/stream",
		createReplyRequest{Content: "hello", Sender: "user"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
