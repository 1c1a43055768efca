// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chain resolves reply chains into ordered message context.
package chain

import (
	"context"
	"errors"
	"time"

	"github.com/andrewchu16/chat-replies/internal/model"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	// MaxChainLength bounds a resolved chain. Longer chains are truncated to
	// the nearest ancestors, dropping the oldest.
	MaxChainLength = 64

	// MinContextLength is the floor for prompt context. Chains shorter than
	// this are backfilled with messages that precede the chain.
	MinContextLength = 10
)

// ErrCyclicReply is returned when reply metadata forms a cycle. Cycles
// indicate corrupt data and are reported, never silently resolved.
var ErrCyclicReply = errors.New("cyclic reply metadata detected")

// =============================================================================
// RESOLVER
// =============================================================================

// Source is the read-only store surface the resolver consumes.
// Messages returned by GetMessage carry their ReplyMetadata when present.
// ListMessagesBefore returns up to limit messages created strictly before
// the given time, chronological, keeping the newest when more qualify.
type Source interface {
	GetMessage(ctx context.Context, chatID, messageID string) (*model.Message, error)
	ListMessagesBefore(ctx context.Context, chatID string, before time.Time, limit int) ([]*model.Message, error)
}

// Resolver walks reply chains over a message Source.
type Resolver struct {
	source Source
}

// NewResolver creates a resolver backed by the given source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve walks parent links from messageID back toward the root and returns
// the chain root-first, ending with the starting message itself.
//
// The walk stops at a message with no reply metadata. A repeat of an already
// visited ID fails with ErrCyclicReply. Once MaxChainLength messages have
// been collected the walk stops early, keeping the ancestors nearest to the
// starting message.
func (r *Resolver) Resolve(ctx context.Context, chatID, messageID string) ([]*model.Message, error) {
	current, err := r.source.GetMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}

	// Collected nearest-first; reversed before returning.
	collected := []*model.Message{current}
	visited := map[string]bool{current.ID: true}

	for current.ReplyMetadata != nil && len(collected) < MaxChainLength {
		parentID := current.ReplyMetadata.ParentID
		if visited[parentID] {
			return nil, ErrCyclicReply
		}

		parent, err := r.source.GetMessage(ctx, chatID, parentID)
		if err != nil {
			return nil, err
		}

		visited[parentID] = true
		collected = append(collected, parent)
		current = parent
	}

	// Reverse to root-first order.
	chain := make([]*model.Message, len(collected))
	for i, msg := range collected {
		chain[len(collected)-1-i] = msg
	}
	return chain, nil
}

// ResolveContext returns the prompt context for replying to messageID: the
// resolved chain, backfilled with messages that precede the chain when the
// chain alone is shorter than MinContextLength. Backfill comes only from
// before the chain's oldest entry, so the result stays in chronological
// order with the chain at the end.
func (r *Resolver) ResolveContext(ctx context.Context, chatID, messageID string) ([]*model.Message, error) {
	chain, err := r.Resolve(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if len(chain) >= MinContextLength {
		return chain, nil
	}

	oldest := chain[0].CreatedAt
	for _, msg := range chain[1:] {
		if msg.CreatedAt.Before(oldest) {
			oldest = msg.CreatedAt
		}
	}

	need := MinContextLength - len(chain)
	backfill, err := r.source.ListMessagesBefore(ctx, chatID, oldest, need)
	if err != nil {
		return nil, err
	}

	return append(append([]*model.Message{}, backfill...), chain...), nil
}
