// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAcquireRelease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Acquire(ctx, "voter-clustering", time.Minute); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if err := s.Acquire(ctx, "voter-clustering", time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("second Acquire = %v, want ErrHeld", err)
	}
	if err := s.Release(ctx, "voter-clustering"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := s.Acquire(ctx, "voter-clustering", time.Minute); err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
}

func TestAcquireExpiresAfterTTL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Acquire(ctx, "voter-clustering", 10*time.Millisecond); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := s.Acquire(ctx, "voter-clustering", time.Minute); err != nil {
		t.Fatalf("Acquire after expiry: %v", err)
	}
}

func TestReleaseOfUnheldLeaseIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Release(context.Background(), "never-held"); err != nil {
		t.Fatalf("Release on unheld lease: %v", err)
	}
}

func TestIndependentLeaseNamesDoNotContend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Acquire(ctx, "voter-clustering", time.Minute); err != nil {
		t.Fatalf("Acquire first: %v", err)
	}
	if err := s.Acquire(ctx, "other-lease", time.Minute); err != nil {
		t.Fatalf("Acquire second (different name): %v", err)
	}
}
