// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates a chat view: the message list, the in-flight
// AI message, and the single active stream per session.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/stream"
)

// =============================================================================
// ERRORS AND NOTIFICATIONS
// =============================================================================

var (
	// ErrStreamActive is returned when a send or reply is attempted while a
	// stream is already running. Input is rejected, not queued.
	ErrStreamActive = errors.New("a response is already streaming")

	// ErrNoChat is returned for operations that need an existing chat.
	ErrNoChat = errors.New("no active chat")

	// ErrUnknownParent is returned when replying to a message that is not in
	// the current chat.
	ErrUnknownParent = errors.New("replied-to message not found in chat")
)

// NotificationKind classifies observer notifications.
type NotificationKind int

const (
	// NotifyMessages means the message list changed (new message, fragment
	// applied, placeholder added or removed).
	NotifyMessages NotificationKind = iota

	// NotifyStreamStarted means the placeholder appeared.
	NotifyStreamStarted

	// NotifyStreamCompleted means the stream reconciled successfully.
	NotifyStreamCompleted

	// NotifyStreamFailed means the stream discarded; Reason carries the
	// human-readable failure.
	NotifyStreamFailed
)

// Notification is delivered to the observer after each state change.
type Notification struct {
	Kind   NotificationKind
	Reason string
}

// =============================================================================
// STREAMER CONTRACT
// =============================================================================

// Streamer is the API surface the coordinator drives. *client.Client
// satisfies it.
type Streamer interface {
	CreateChat(ctx context.Context, title string) (*model.Chat, error)
	StreamMessage(ctx context.Context, chatID, content string, onEvent func(stream.Event)) error
	StreamReply(ctx context.Context, chatID, parentID, content string, quote *model.QuoteRange, onEvent func(stream.Event)) error
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator owns one chat session: the chat, its visible message list, and
// at most one active stream at a time.
type Coordinator struct {
	api Streamer

	mu        sync.Mutex
	chat      *model.Chat
	messages  []*model.Message
	assembler *Assembler
	cancel    context.CancelFunc
	observer  func(Notification)

	// wg tracks the stream goroutine so tests and shutdown can wait for it.
	wg sync.WaitGroup
}

// NewCoordinator creates a coordinator over the given API.
func NewCoordinator(api Streamer) *Coordinator {
	return &Coordinator{api: api}
}

// SetObserver registers the single observer notified after every change.
func (c *Coordinator) SetObserver(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// SetChat switches the session to an existing chat with its message history.
func (c *Coordinator) SetChat(chat *model.Chat, messages []*model.Message) {
	c.mu.Lock()
	c.chat = chat
	c.messages = append([]*model.Message{}, messages...)
	c.mu.Unlock()
	c.notify(Notification{Kind: NotifyMessages})
}

// Chat returns the current chat, or nil before the first send.
func (c *Coordinator) Chat() *model.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat
}

// Messages returns a snapshot of the visible message list. Each element is a
// value copy taken under the coordinator's lock, so callers may read it while
// a stream keeps mutating the live message.
func (c *Coordinator) Messages() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	snaps := make([]*model.Message, len(c.messages))
	for i, msg := range c.messages {
		snaps[i] = msg.Snapshot()
	}
	return snaps
}

// Streaming reports whether a stream is currently active.
func (c *Coordinator) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assembler != nil && c.assembler.State() == StateStreaming
}

// Wait blocks until the active stream goroutine (if any) has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// =============================================================================
// SEND AND REPLY
// =============================================================================

// Send submits a user message and streams the AI response. It returns
// immediately after the placeholder appears; progress and the outcome are
// reported through observer notifications.
//
// Preconditions checked synchronously: non-empty content and no active
// stream. A second send while streaming returns ErrStreamActive.
func (c *Coordinator) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if err := model.ValidateContent(content); err != nil {
		return err
	}

	return c.startStream(ctx, content, func(streamCtx context.Context, chatID string, onEvent func(stream.Event)) error {
		return c.api.StreamMessage(streamCtx, chatID, content, onEvent)
	})
}

// Reply submits a user reply to parentID and streams the AI response. The
// optional quote narrows the replied-to text. The parent must be in the
// current chat's visible list.
func (c *Coordinator) Reply(ctx context.Context, parentID, content string, quote *model.QuoteRange) error {
	content = strings.TrimSpace(content)
	if err := model.ValidateContent(content); err != nil {
		return err
	}

	c.mu.Lock()
	parent := c.findMessage(parentID)
	c.mu.Unlock()
	if parent == nil {
		return ErrUnknownParent
	}
	if quote != nil {
		if err := quote.Validate(parent.Content); err != nil {
			return err
		}
	}

	return c.startStream(ctx, content, func(streamCtx context.Context, chatID string, onEvent func(stream.Event)) error {
		return c.api.StreamReply(streamCtx, chatID, parentID, content, quote, onEvent)
	})
}

// CancelStream cancels the active stream, discarding the placeholder. No-op
// when nothing is streaming.
func (c *Coordinator) CancelStream() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// open is the transport invocation chosen by Send or Reply.
type open func(ctx context.Context, chatID string, onEvent func(stream.Event)) error

// startStream performs the shared send/reply flow: enforce the single-stream
// rule, lazily create the chat, append the user message, insert the
// placeholder, then drive the transport on a goroutine.
func (c *Coordinator) startStream(ctx context.Context, content string, openStream open) error {
	c.mu.Lock()
	if c.assembler != nil && c.assembler.State() == StateStreaming {
		c.mu.Unlock()
		return ErrStreamActive
	}
	c.mu.Unlock()

	// Lazy chat creation happens outside the lock; it is a network call.
	chatID, err := c.ensureChat(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.assembler != nil && c.assembler.State() == StateStreaming {
		c.mu.Unlock()
		return ErrStreamActive
	}

	// The user message appears synchronously and is never rolled back.
	userMsg := model.NewUserMessage(chatID, content)
	c.messages = append(c.messages, userMsg)

	assembler := NewAssembler()
	placeholder := assembler.Start(chatID)
	c.messages = append(c.messages, placeholder)
	c.assembler = assembler

	streamCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.notify(Notification{Kind: NotifyMessages})
	c.notify(Notification{Kind: NotifyStreamStarted})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		err := openStream(streamCtx, chatID, func(ev stream.Event) {
			c.applyEvent(assembler, streamCtx, ev)
		})
		c.settle(assembler, streamCtx, err)
	}()

	return nil
}

// ensureChat lazily creates the chat on first use.
func (c *Coordinator) ensureChat(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.chat != nil {
		id := c.chat.ID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	chat, err := c.api.CreateChat(ctx, "")
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.chat == nil {
		c.chat = chat
	}
	id := c.chat.ID
	c.mu.Unlock()
	return id, nil
}

// applyEvent feeds one event to the assembler and notifies accordingly.
func (c *Coordinator) applyEvent(assembler *Assembler, streamCtx context.Context, ev stream.Event) {
	// Closing the connection on cancel makes the reader see an abrupt end.
	// Report that as a cancellation, not a transport failure.
	if _, failed := ev.(stream.Failure); failed && streamCtx.Err() != nil {
		ev = stream.Failure{Reason: "cancelled"}
	}

	c.mu.Lock()
	terminal := assembler.Apply(ev)
	var notification Notification
	switch {
	case !terminal:
		notification = Notification{Kind: NotifyMessages}
	case assembler.State() == StateReconciled:
		notification = Notification{Kind: NotifyStreamCompleted}
	default:
		c.removePlaceholder(assembler)
		notification = Notification{Kind: NotifyStreamFailed, Reason: assembler.FailureReason()}
	}
	c.mu.Unlock()

	c.notify(notification)
}

// settle handles stream teardown after the transport call returns: transport
// errors and cancellation both discard the placeholder if the assembler is
// still streaming.
func (c *Coordinator) settle(assembler *Assembler, streamCtx context.Context, err error) {
	c.mu.Lock()
	if assembler.State() != StateStreaming {
		c.clearActive(assembler)
		c.mu.Unlock()
		return
	}

	reason := "stream terminated unexpectedly"
	if streamCtx.Err() != nil {
		assembler.Cancel()
		reason = assembler.FailureReason()
	} else if err != nil {
		assembler.Apply(stream.Failure{Reason: err.Error()})
		reason = assembler.FailureReason()
	} else {
		// Transport returned cleanly without a terminal event.
		assembler.Apply(stream.Failure{Reason: reason})
	}
	c.removePlaceholder(assembler)
	c.clearActive(assembler)
	c.mu.Unlock()

	if err != nil && streamCtx.Err() == nil {
		log.Printf("STREAM_FAILED | reason=%v", err)
	}
	c.notify(Notification{Kind: NotifyStreamFailed, Reason: reason})
}

// removePlaceholder drops the assembler's in-flight message from the list.
// Caller holds the lock.
func (c *Coordinator) removePlaceholder(assembler *Assembler) {
	placeholder := assembler.Message()
	if placeholder == nil {
		return
	}
	for i, msg := range c.messages {
		if msg == placeholder {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// clearActive releases the active-stream slot. Caller holds the lock.
func (c *Coordinator) clearActive(assembler *Assembler) {
	if c.assembler == assembler {
		c.cancel = nil
	}
}

// findMessage locates a message by ID. Caller holds the lock.
func (c *Coordinator) findMessage(id string) *model.Message {
	for _, msg := range c.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// notify delivers a notification outside the lock.
func (c *Coordinator) notify(n Notification) {
	c.mu.Lock()
	observer := c.observer
	c.mu.Unlock()
	if observer != nil {
		observer(n)
	}
}
