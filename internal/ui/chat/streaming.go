// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the terminal client.
//
// This file implements streaming render throttling. Fragment notifications
// can arrive far faster than the terminal can usefully repaint; the
// RenderLimiter coalesces them so the viewport refreshes at a capped frame
// rate instead of once per token.
package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// RENDER LIMITER
// =============================================================================

// RenderLimiter coalesces fragment arrivals into capped-rate refreshes.
// Arrivals mark the limiter dirty; Flush reports whether a repaint is due,
// based on either an arrival count threshold or elapsed time.
//
// Thread-safety: arrivals are recorded from the stream goroutine while
// flushes happen on the main Bubble Tea loop, so all operations lock.
type RenderLimiter struct {
	mu        sync.Mutex
	pending   int
	lastFlush time.Time

	batchSize   int           // Arrivals per forced repaint
	minFlushGap time.Duration // Min time between repaints (1000/maxFPS)
}

// NewRenderLimiter creates a limiter with the default settings:
// repaint every 15 arrivals or every ~33ms (30fps), whichever comes first.
func NewRenderLimiter() *RenderLimiter {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)
	return &RenderLimiter{
		batchSize:   defaultBatchSize,
		minFlushGap: time.Duration(1000/defaultMaxFPS) * time.Millisecond,
		lastFlush:   time.Now(),
	}
}

// NewRenderLimiterWithConfig creates a limiter with custom settings.
func NewRenderLimiterWithConfig(batchSize, maxFPS int) *RenderLimiter {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &RenderLimiter{
		batchSize:   batchSize,
		minFlushGap: time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush:   time.Now(),
	}
}

// MarkDirty records one fragment arrival. Called from the stream goroutine.
func (rl *RenderLimiter) MarkDirty() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.pending++
}

// Flush reports whether a repaint is due and resets the counter if so.
// Called from the main Bubble Tea loop.
func (rl *RenderLimiter) Flush() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.pending == 0 {
		return false
	}
	if rl.pending < rl.batchSize && time.Since(rl.lastFlush) < rl.minFlushGap {
		return false
	}

	rl.pending = 0
	rl.lastFlush = time.Now()
	return true
}

// ForceFlush resets the counter and reports whether anything was pending.
// Use this when a stream settles so the final content always renders.
func (rl *RenderLimiter) ForceFlush() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	had := rl.pending > 0
	rl.pending = 0
	rl.lastFlush = time.Now()
	return had
}

// Pending returns the number of arrivals waiting for a repaint.
func (rl *RenderLimiter) Pending() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.pending
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd creates a tea.Cmd that sends StreamTickMsg at 30fps while a
// stream is active.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
