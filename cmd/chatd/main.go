// chatd - The chat-replies backend daemon.
//
// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrewchu16/chat-replies/internal/config"
	"github.com/andrewchu16/chat-replies/internal/llm"
	"github.com/andrewchu16/chat-replies/internal/server"
	"github.com/andrewchu16/chat-replies/internal/store"
)

func main() {
	var (
		portFlag = flag.Int("port", 0, "listen port (overrides config)")
		dbFlag   = flag.String("db", "", "database path (overrides config)")
	)
	flag.Parse()

	if err := run(*portFlag, *dbFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(port int, dbPath string) error {
	cfg, err := config.Init()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port == 0 {
		port = cfg.Server.Port
	}
	if dbPath == "" {
		dbPath = cfg.Server.DatabasePath
	}
	if dbPath == "" {
		dbPath, err = config.DefaultDatabasePath()
		if err != nil {
			return fmt.Errorf("resolving database path: %w", err)
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	ollama := llm.NewClient(llm.Config{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.Model,
	})

	// A cold Ollama is not fatal; streams surface the failure per request.
	checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := ollama.CheckRunning(checkCtx); err != nil {
		log.Printf("OLLAMA_UNREACHABLE | url=%s err=%v", cfg.Ollama.URL, err)
	}
	cancel()

	srv := server.NewServer(st, ollama, port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Printf("SERVER_STOP | signal=%s", sig)
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}
	return nil
}
