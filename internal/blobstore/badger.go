// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tilewall/tilewall/internal/config"
	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/metrics"
)

// BadgerStore is an embedded BadgerDB-backed object store. Writes are
// fsynced by default so an accepted submission's image survives a crash
// alongside its history row.
//
// A circuit breaker guards both operations; a disk-level failure streak
// trips it and later submissions fail fast with a persistence error instead
// of piling onto a broken volume.
type BadgerStore struct {
	db      *badger.DB
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// Open opens (or creates) the store at cfg.Path.
func Open(cfg *config.BlobConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "blobstore",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("blob store circuit breaker state change")
		},
	})

	return &BadgerStore{db: db, breaker: breaker}, nil
}

// Put stores data under key.
func (b *BadgerStore) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	_, err := b.breaker.Execute(func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := b.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(key), data)
		})
		return nil, err
	})
	metrics.RecordBlobOp("put", start, err)
	if err != nil {
		return fmt.Errorf("blob put %s: %w", key, err)
	}
	return nil
}

// Get returns the object stored under key, or ErrNotFound.
func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	notFound := false
	data, err := b.breaker.Execute(func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var out []byte
		err := b.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			out, err = item.ValueCopy(nil)
			return err
		})
		// A missing key is a caller error, not a store failure; it must not
		// count against the breaker.
		if errors.Is(err, badger.ErrKeyNotFound) {
			notFound = true
			return nil, nil
		}
		return out, err
	})
	metrics.RecordBlobOp("get", start, err)
	if err != nil {
		return nil, fmt.Errorf("blob get %s: %w", key, err)
	}
	if notFound {
		return nil, ErrNotFound
	}
	return data, nil
}

// Close closes the underlying BadgerDB.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
