// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package lease implements the single-leader lock the run coordinator
// acquires before starting a pipeline run. It is a thin wrapper over
// Badger's native per-key TTL, the same mechanism the reference
// implementation's cache.add-based named lock achieved with a cache
// backend's expiry.
package lease

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// ErrHeld is returned by Acquire when the named lease is already held by
// another holder and has not yet expired.
var ErrHeld = errors.New("lease: already held")

// Store is a Badger-backed lease store. One Store is shared by every
// coordinator instance contending for the same leases (typically one per
// process, pointed at a shared directory or, in a single-node deployment,
// simply local disk).
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (creating if absent) the Badger database at dir. An empty dir
// opens an in-memory database, used by tests.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Acquire attempts to take the named lease for ttl. It returns ErrHeld
// immediately if the lease is already held and unexpired; it never waits.
func (s *Store) Acquire(ctx context.Context, name string, ttl time.Duration) error {
	key := []byte("lease:" + name)
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrHeld
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		entry := badger.NewEntry(key, []byte(time.Now().UTC().Format(time.RFC3339))).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil && !errors.Is(err, ErrHeld) {
		s.logger.Error().Err(err).Str("lease", name).Msg("lease acquisition failed")
	}
	return err
}

// Release drops the named lease early, e.g. on successful run completion
// or on a failure rollback, so the next scheduled trigger need not wait
// out the full TTL.
func (s *Store) Release(ctx context.Context, name string) error {
	key := []byte("lease:" + name)
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
