// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the terminal client.

The chat package implements an interactive conversation interface using the
Bubble Tea framework, driven by a session.Coordinator that owns the message
list and the single active stream.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model that maintains all chat
state:
  - The session coordinator and its notification bridge
  - Input handling and submission
  - Viewport for message scrolling
  - Reply-target selection
  - Streaming state for in-flight AI responses

## View Rendering (view.go)

Rendering logic for the complete chat interface:
  - Header with chat title and backend info
  - Messages with sender labels and reply quote blocks
  - In-flight response with a spinner
  - Status bar with keyboard shortcuts

## Update Loop (update.go)

Handles all Bubble Tea messages and user interactions: keyboard input,
session notifications, window resizes, and render ticks.

## Streaming (streaming.go)

The RenderLimiter caps how often fragment arrivals trigger a re-render,
keeping streaming smooth without pegging the CPU.

# Usage

	coord := session.NewCoordinator(client.New(serverURL))
	m := chat.New(chat.Options{Coordinator: coord, ServerURL: serverURL})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
