// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the chat
// application.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.chat-replies/config.toml.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.NewServer(st, responder, cfg.Server.Port)
package config
