// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// COLOR PALETTE
// =============================================================================

// Adaptive colors keep the interface readable on light and dark terminals.
var (
	ColorAccent  = lipgloss.AdaptiveColor{Light: "25", Dark: "39"}   // blue
	ColorUser    = lipgloss.AdaptiveColor{Light: "28", Dark: "78"}   // green
	ColorAI      = lipgloss.AdaptiveColor{Light: "54", Dark: "141"}  // purple
	ColorMuted   = lipgloss.AdaptiveColor{Light: "243", Dark: "245"} // gray
	ColorError   = lipgloss.AdaptiveColor{Light: "124", Dark: "203"} // red
	ColorWarning = lipgloss.AdaptiveColor{Light: "130", Dark: "215"} // orange
	ColorBorder  = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds all the styled components for the chat view.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AILabel        lipgloss.Style
	MessageBody    lipgloss.Style
	StreamingBody  lipgloss.Style
	QuoteBlock     lipgloss.Style
	ReplyIndicator lipgloss.Style
	Timestamp      lipgloss.Style
	SelectedMsg    lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	ReplyBanner    lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Spinner      lipgloss.Style

	// ==========================================================================
	// ERROR STYLES
	// ==========================================================================

	ErrorLine lipgloss.Style
}

// DefaultTheme builds the standard theme.
func DefaultTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}

	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)
	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(ColorUser).
		Bold(true)
	t.AILabel = lipgloss.NewStyle().
		Foreground(ColorAI).
		Bold(true)
	t.MessageBody = lipgloss.NewStyle().
		PaddingLeft(2)
	t.StreamingBody = lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(ColorMuted)
	t.QuoteBlock = lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(ColorMuted).
		Italic(true)
	t.ReplyIndicator = lipgloss.NewStyle().
		Foreground(ColorAccent)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(ColorMuted)
	t.SelectedMsg = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(ColorAccent).
		PaddingLeft(1)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)
	t.ReplyBanner = lipgloss.NewStyle().
		Foreground(ColorWarning)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)
	t.Spinner = lipgloss.NewStyle().
		Foreground(ColorAccent)

	t.ErrorLine = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	return t
}

// Resize updates the layout dimensions and width-dependent styles.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height
	t.Header = t.Header.Width(width)
	t.StatusBar = t.StatusBar.Width(width)
	t.InputContainer = t.InputContainer.Width(width)
}
