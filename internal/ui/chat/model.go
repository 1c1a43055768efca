// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the terminal client.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/session"
	"github.com/andrewchu16/chat-replies/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streaming response
	StateSelecting              // Choosing a message to reply to
)

// notificationBuffer bounds the coordinator-to-view bridge. Fragment
// notifications beyond capacity are dropped; the render tick catches up.
const notificationBuffer = 256

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a new chat model.
type Options struct {
	Coordinator *session.Coordinator
	ServerURL   string
	ModelName   string
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Session
	coordinator   *session.Coordinator
	notifications chan session.Notification

	// Streaming optimization
	limiter *RenderLimiter

	// Reply-target selection
	selectIndex int            // Index into the candidate list while selecting
	replyTarget *model.Message // Chosen parent, nil for a plain send

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Error state
	lastError string

	// Status
	serverURL string
	modelName string
}

// New creates a chat model over the given coordinator. The coordinator's
// observer is claimed by the view; notifications flow through a buffered
// channel into the Bubble Tea loop.
func New(opts Options) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = model.MaxContentLength
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Line

	m := Model{
		state:         StateReady,
		theme:         styles.DefaultTheme(),
		coordinator:   opts.Coordinator,
		notifications: make(chan session.Notification, notificationBuffer),
		limiter:       NewRenderLimiter(),
		input:         input,
		spinner:       sp,
		keyMap:        DefaultKeyMap(),
		serverURL:     opts.ServerURL,
		modelName:     opts.ModelName,
	}

	ch := m.notifications
	opts.Coordinator.SetObserver(func(n session.Notification) {
		// Never block the stream goroutine on a slow repaint. Dropped
		// fragment notifications are recovered by the render tick.
		select {
		case ch <- n:
		default:
		}
	})

	return m
}

// Init starts the notification bridge.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForNotification())
}

// waitForNotification blocks on the bridge channel and forwards the next
// coordinator notification into the update loop.
func (m Model) waitForNotification() tea.Cmd {
	ch := m.notifications
	return func() tea.Msg {
		return SessionNotificationMsg{Notification: <-ch}
	}
}

// replyCandidates returns the settled messages a reply can target.
func (m Model) replyCandidates() []*model.Message {
	msgs := m.coordinator.Messages()
	candidates := make([]*model.Message, 0, len(msgs))
	for _, msg := range msgs {
		if !msg.IsStreaming {
			candidates = append(candidates, msg)
		}
	}
	return candidates
}
