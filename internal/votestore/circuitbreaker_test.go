// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package votestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/models"
)

type fakeStore struct {
	votesErr error
	votes    []models.Vote
	calls    int
}

func (f *fakeStore) VotesSince(ctx context.Context, since, now time.Time) ([]models.Vote, error) {
	f.calls++
	if f.votesErr != nil {
		return nil, f.votesErr
	}
	return f.votes, nil
}

func (f *fakeStore) Claims(ctx context.Context) (map[string]string, error) {
	return nil, nil
}

func TestCircuitBreakerPassesThroughOnSuccess(t *testing.T) {
	inner := &fakeStore{votes: []models.Vote{{ItemID: "item-1"}}}
	cb := NewCircuitBreakerStore(inner, zerolog.Nop())

	votes, err := cb.VotesSince(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("VotesSince: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected 1 vote, got %d", len(votes))
	}
}

func TestCircuitBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeStore{votesErr: errors.New("boom")}
	cb := NewCircuitBreakerStore(inner, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cb.VotesSince(ctx, time.Time{}, time.Time{}); err == nil {
			t.Fatalf("call %d: expected error from failing inner store", i)
		}
	}

	callsBeforeTrip := inner.calls
	if _, err := cb.VotesSince(ctx, time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected an error once the breaker is open")
	}
	if inner.calls != callsBeforeTrip {
		t.Fatalf("inner store was called after the breaker tripped: calls=%d, want %d", inner.calls, callsBeforeTrip)
	}
}
