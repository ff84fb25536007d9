// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package votestore declares the read-only boundary against the external
// vote store (C1). The pipeline never writes through this interface and
// never assumes a particular database; the recommend engine's DataProvider
// split in the wider platform is the model this follows, so the clustering
// packages can be tested against an in-memory fake without pulling in a
// database driver.
package votestore

import (
	"context"
	"time"

	"github.com/memoriauy/burbujas/internal/models"
)

// Store is the authoritative source of votes, voters, and claim events.
type Store interface {
	// VotesSince returns every vote with Timestamp in (since, now]. Order is
	// unspecified; the matrix builder does not depend on it beyond
	// last-write-wins dedup, for which it uses Timestamp, not read order.
	VotesSince(ctx context.Context, since, now time.Time) ([]models.Vote, error)

	// Claims returns the current session -> registered voter claim mapping,
	// used to reconcile identities before matrix construction.
	Claims(ctx context.Context) (map[string]string, error)
}

// ItemLister is an optional capability some stores implement to enumerate
// every item id observed within a window even where a vote row alone would
// not disambiguate it. The matrix builder does not require it; item ids are
// inferred from votes instead.
type ItemLister interface {
	Items(ctx context.Context, since, now time.Time) ([]string, error)
}
