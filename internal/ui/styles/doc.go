// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chat TUI.

The Theme struct groups every lipgloss style the chat view renders with:
header, message bubbles, reply quotes, the input area, the status bar,
and error display. Colors are adaptive so the interface stays readable on
both light and dark terminals.

# Usage

	theme := styles.DefaultTheme()
	theme.Resize(width, height)
	fmt.Println(theme.UserLabel.Render("You"))
*/
package styles
