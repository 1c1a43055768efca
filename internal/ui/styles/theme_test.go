// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()
	if theme == nil {
		t.Fatal("DefaultTheme returned nil")
	}
	// Styles must render without panicking, whatever the terminal profile.
	_ = theme.HeaderTitle.Render("title")
	_ = theme.UserLabel.Render("You")
	_ = theme.QuoteBlock.Render("quoted")
	_ = theme.ErrorLine.Render("boom")
}

func TestThemeResize(t *testing.T) {
	theme := DefaultTheme()
	theme.Resize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("dimensions = %dx%d, want 120x40", theme.Width, theme.Height)
	}
	if theme.StatusBar.GetWidth() != 120 {
		t.Errorf("StatusBar width = %d, want 120", theme.StatusBar.GetWidth())
	}
}
