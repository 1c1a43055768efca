// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the terminal client.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/andrewchu16/chat-replies/internal/model"
	"github.com/andrewchu16/chat-replies/internal/util"
)

// Display-width caps for inline previews. Width-based so wide CJK runes
// count double and the layout holds.
const (
	quotePreviewWidth  = 120
	replyBannerPreview = 60
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the complete chat interface.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderInput())
	sb.WriteString("\n")
	sb.WriteString(m.renderErrorLine())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())
	return sb.String()
}

// =============================================================================
// VIEWPORT
// =============================================================================

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	return vp
}

// refreshViewport re-renders the message list into the viewport. When follow
// is true the view sticks to the newest message.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow && (atBottom || m.state == StateStreaming) {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := "New Chat"
	if chat := m.coordinator.Chat(); chat != nil {
		title = chat.Title
	}

	left := m.theme.HeaderTitle.Render(title)
	right := m.theme.HeaderSubtitle.Render(m.serverURL)
	if m.modelName != "" {
		right = m.theme.HeaderSubtitle.Render(m.modelName + " @ " + m.serverURL)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m *Model) renderMessages() string {
	msgs := m.coordinator.Messages()
	if len(msgs) == 0 {
		return m.renderEmptyState()
	}

	selected := -1
	if m.state == StateSelecting {
		candidates := m.replyCandidates()
		if m.selectIndex >= 0 && m.selectIndex < len(candidates) {
			selected = indexOfID(msgs, candidates[m.selectIndex].ID)
		}
	}

	parts := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		parts = append(parts, m.renderMessage(msgs, msg, i == selected))
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderMessage(all []*model.Message, msg *model.Message, selected bool) string {
	var sb strings.Builder

	label := m.theme.UserLabel
	if msg.Sender == model.SenderAI {
		label = m.theme.AILabel
	}
	sb.WriteString(label.Render(msg.Sender.DisplayName()))

	if msg.IsStreaming {
		sb.WriteString(" " + m.theme.Spinner.Render(m.spinner.View()))
	}
	sb.WriteString("\n")

	if msg.ReplyMetadata != nil {
		sb.WriteString(m.renderQuote(all, msg.ReplyMetadata))
	}

	body := m.theme.MessageBody
	if msg.IsStreaming {
		body = m.theme.StreamingBody
	}
	content := msg.DisplayContent()
	if content == "" && msg.IsStreaming {
		content = "..."
	}
	width := m.width - 4
	if width > 0 {
		body = body.Width(width)
	}
	sb.WriteString(body.Render(content))

	rendered := sb.String()
	if selected {
		return m.theme.SelectedMsg.Render(rendered)
	}
	return rendered
}

// renderQuote shows the replied-to text above a reply's own content.
func (m *Model) renderQuote(all []*model.Message, meta *model.ReplyMetadata) string {
	parent := findByID(all, meta.ParentID)
	if parent == nil {
		return ""
	}
	quoted := meta.QuotedText(parent.Content)
	quoted = util.CollapseWhitespace(quoted)
	quoted = util.TruncateWidth(quoted, quotePreviewWidth)

	line := m.theme.ReplyIndicator.Render("> ") + m.theme.QuoteBlock.Render(quoted)
	return line + "\n"
}

func (m *Model) renderEmptyState() string {
	return m.theme.HeaderSubtitle.Render("No messages yet. Type below to start the conversation.")
}

// =============================================================================
// INPUT AREA
// =============================================================================

func (m Model) renderInput() string {
	var sb strings.Builder
	if m.replyTarget != nil {
		banner := "Replying to " + m.replyTarget.Sender.DisplayName() +
			": " + m.replyTarget.Preview(replyBannerPreview)
		sb.WriteString(m.theme.ReplyBanner.Render(banner))
		sb.WriteString("\n")
	}
	sb.WriteString(m.theme.InputPrompt.Render("> "))
	sb.WriteString(m.input.View())
	return m.theme.InputContainer.Render(sb.String())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	var parts []string

	shortcut := func(k, desc string) string {
		return m.theme.ShortcutKey.Render(k) + " " + m.theme.ShortcutDesc.Render(desc)
	}

	switch m.state {
	case StateStreaming:
		parts = append(parts,
			m.theme.Spinner.Render(m.spinner.View())+" streaming",
			shortcut("Esc", "cancel"))
	case StateSelecting:
		parts = append(parts,
			shortcut("up/down", "pick message"),
			shortcut("Enter", "reply to it"),
			shortcut("Esc", "back"))
	default:
		parts = append(parts,
			shortcut("Enter", "send"),
			shortcut("C-r", "reply"),
			shortcut("PgUp/PgDn", "scroll"),
			shortcut("C-c", "quit"))
	}

	return m.theme.StatusBar.Render(strings.Join(parts, "  |  "))
}

// =============================================================================
// ERROR LINE
// =============================================================================

func (m Model) renderErrorLine() string {
	if m.lastError == "" {
		return ""
	}
	return m.theme.ErrorLine.Render("! " + m.lastError)
}

// =============================================================================
// HELPERS
// =============================================================================

func indexOfID(msgs []*model.Message, id string) int {
	for i, msg := range msgs {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

func findByID(msgs []*model.Message, id string) *model.Message {
	for _, msg := range msgs {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}
