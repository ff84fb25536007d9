// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package votestore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/memoriauy/burbujas/internal/models"
)

// CircuitBreakerStore wraps a Store so repeated read failures trip a
// breaker and fail fast with StoreUnavailable instead of blocking the run
// coordinator on a store that is down. gobreaker's internal state-change
// timer uses real wall-clock time; that does not affect the determinism of
// anything downstream of a successful read, since the breaker only gates
// whether a read is attempted, not its result.
type CircuitBreakerStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker[any]
}

// NewCircuitBreakerStore wraps inner with a breaker tuned for a batch job
// that runs at most a few times per hour: a handful of consecutive store
// failures should be enough to trip it, since each run attempt will
// naturally retry on its own schedule.
func NewCircuitBreakerStore(inner Store, logger zerolog.Logger) *CircuitBreakerStore {
	settings := gobreaker.Settings{
		Name:        "vote-store",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("vote store circuit breaker state change")
		},
	}
	return &CircuitBreakerStore{inner: inner, breaker: gobreaker.NewCircuitBreaker[any](settings)}
}

func (c *CircuitBreakerStore) VotesSince(ctx context.Context, since, now time.Time) ([]models.Vote, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.inner.VotesSince(ctx, since, now)
	})
	if err != nil {
		return nil, fmt.Errorf("vote store read via circuit breaker: %w", err)
	}
	return result.([]models.Vote), nil
}

func (c *CircuitBreakerStore) Claims(ctx context.Context) (map[string]string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.inner.Claims(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("claim event read via circuit breaker: %w", err)
	}
	return result.(map[string]string), nil
}
