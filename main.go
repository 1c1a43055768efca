// chat-replies - A terminal chat client with threaded replies.
//
// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/andrewchu16/chat-replies/internal/client"
	"github.com/andrewchu16/chat-replies/internal/config"
	"github.com/andrewchu16/chat-replies/internal/session"
	"github.com/andrewchu16/chat-replies/internal/ui/chat"
)

func main() {
	serverFlag := flag.String("server", "", "backend URL (overrides config)")
	flag.Parse()

	if err := run(*serverFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverURL string) error {
	cfg, err := config.Init()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serverURL == "" {
		serverURL = cfg.Client.ServerURL
	}

	api := client.New(serverURL)
	coord := session.NewCoordinator(api)

	m := chat.New(chat.Options{
		Coordinator: coord,
		ServerURL:   serverURL,
		ModelName:   cfg.Ollama.Model,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	// Let an in-flight stream goroutine finish notifying before exit.
	coord.CancelStream()
	coord.Wait()
	return nil
}
