// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package naming exposes the post-completion hook an external LLM-backed
// naming service attaches to. The core never calls that service directly;
// it only publishes enough context (top items by consensus) for a
// subscriber to answer asynchronously with a (name, description) pair. A
// hook failure or timeout must never fail the run that triggered it --
// callers invoke Notify after the run is already persisted.
package naming

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/events"
)

// Publisher is the subset of events.Bus this package depends on, so it can
// be faked in tests without standing up NATS.
type Publisher interface {
	PublishNamingRequest(ctx context.Context, payload []byte)
}

// Hook requests naming for every group cluster in a completed run.
type Hook struct {
	Publisher Publisher
	Logger    zerolog.Logger
}

// GroupContext is one group cluster's naming input.
type GroupContext struct {
	ClusterLocalID int
	TopItemIDs     []string // items ordered by descending per-item consensus
}

// Notify publishes one naming request per group. It never returns an
// error to the caller: a publish failure is logged and otherwise ignored,
// matching the "fire-and-forget, failure must not fail the Run" contract.
func (h *Hook) Notify(ctx context.Context, runID string, groups []GroupContext) {
	for _, g := range groups {
		payload, err := json.Marshal(events.NamingRequest{
			RunID:          runID,
			ClusterLocalID: g.ClusterLocalID,
			TopItemIDs:     g.TopItemIDs,
		})
		if err != nil {
			h.Logger.Warn().Err(err).Int("cluster_local_id", g.ClusterLocalID).
				Msg("failed to encode naming request, skipping")
			continue
		}
		h.Publisher.PublishNamingRequest(ctx, payload)
	}
}
