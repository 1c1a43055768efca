// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the terminal client.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/session"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles all Bubble Tea messages for the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionNotificationMsg:
		return m.handleNotification(msg.Notification)

	case StreamTickMsg:
		return m.handleStreamTick()

	case SubmitErrorMsg:
		m.lastError = msg.Err.Error()
		if msg.Content != "" && m.input.Value() == "" {
			m.input.SetValue(msg.Content)
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

// Chrome rows around the viewport: header (2), input (2), status bar (1),
// error line (1).
const chromeHeight = 6

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.Resize(msg.Width, msg.Height)

	contentHeight := msg.Height - chromeHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	if !m.ready {
		m.viewport = newViewport(msg.Width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = contentHeight
	}
	m.input.Width = msg.Width - 4

	m.refreshViewport(true)
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.coordinator.CancelStream()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		return m.handleCancel(), nil

	case key.Matches(msg, m.keyMap.Reply):
		if m.state == StateReady {
			if candidates := m.replyCandidates(); len(candidates) > 0 {
				m.state = StateSelecting
				m.selectIndex = len(candidates) - 1
				m.refreshViewport(false)
			}
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Up), key.Matches(msg, m.keyMap.Down):
		if m.state == StateSelecting {
			return m.moveSelection(key.Matches(msg, m.keyMap.Up)), nil
		}

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()
	}

	if m.state == StateSelecting {
		// Selection mode swallows typing.
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleCancel unwinds one layer: an active stream, selection mode, a chosen
// reply target, or a displayed error.
func (m Model) handleCancel() Model {
	switch {
	case m.state == StateStreaming:
		m.coordinator.CancelStream()
	case m.state == StateSelecting:
		m.state = StateReady
		m.refreshViewport(false)
	case m.replyTarget != nil:
		m.replyTarget = nil
	default:
		m.lastError = ""
	}
	return m
}

func (m Model) moveSelection(up bool) Model {
	candidates := m.replyCandidates()
	if len(candidates) == 0 {
		return m
	}
	if up && m.selectIndex > 0 {
		m.selectIndex--
	}
	if !up && m.selectIndex < len(candidates)-1 {
		m.selectIndex++
	}
	m.refreshViewport(false)
	return m
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	// In selection mode Enter picks the reply target.
	if m.state == StateSelecting {
		candidates := m.replyCandidates()
		if m.selectIndex >= 0 && m.selectIndex < len(candidates) {
			m.replyTarget = candidates[m.selectIndex]
		}
		m.state = StateReady
		m.refreshViewport(false)
		return m, nil
	}

	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	m.input.Reset()
	m.lastError = ""

	return m, submitCmd(m.coordinator, content, m.replyTarget)
}

func (m Model) handleNotification(n session.Notification) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForNotification()}

	switch n.Kind {
	case session.NotifyMessages:
		if m.state == StateStreaming {
			// Throttled; the render tick picks it up.
			m.limiter.MarkDirty()
		} else {
			m.refreshViewport(true)
		}

	case session.NotifyStreamStarted:
		m.state = StateStreaming
		m.lastError = ""
		m.replyTarget = nil
		m.refreshViewport(true)
		cmds = append(cmds, m.spinner.Tick, streamTickCmd())

	case session.NotifyStreamCompleted:
		m.state = StateReady
		m.limiter.ForceFlush()
		m.refreshViewport(true)

	case session.NotifyStreamFailed:
		m.state = StateReady
		m.lastError = n.Reason
		m.limiter.ForceFlush()
		m.refreshViewport(true)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}

	// Catch up on any notifications dropped by the bridge.
	if !m.coordinator.Streaming() {
		m.state = StateReady
		m.limiter.ForceFlush()
		m.refreshViewport(true)
		return m, nil
	}

	if m.limiter.Flush() {
		m.refreshViewport(true)
	}
	return m, streamTickCmd()
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// submitCmd creates a command that sends or replies through the coordinator.
// Rejections (active stream, validation) come back as SubmitErrorMsg.
func submitCmd(coord *session.Coordinator, content string, target *model.Message) tea.Cmd {
	return func() tea.Msg {
		var err error
		if target != nil {
			err = coord.Reply(context.Background(), target.ID, content, nil)
		} else {
			err = coord.Send(context.Background(), content)
		}
		if err != nil {
			return SubmitErrorMsg{Err: err, Content: content}
		}
		return nil
	}
}
