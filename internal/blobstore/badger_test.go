// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/tilewall/tilewall/internal/config"
	"github.com/tilewall/tilewall/internal/logging"
)

//nolint:gochecknoinits // init ensures quiet logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open(&config.BlobConfig{Path: t.TempDir(), SyncWrites: false})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	if err := s.Put(ctx, "abc.png", payload); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := s.Get(ctx, "abc.png")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get() = %v, want %v", got, payload)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "never-stored.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMissingKeysDoNotTripBreaker(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if _, err := s.Get(ctx, "missing.png"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
		}
	}

	// A real write must still pass after a streak of misses.
	if err := s.Put(ctx, "still-works.png", []byte{1}); err != nil {
		t.Errorf("Put() after misses failed: %v", err)
	}
}

func TestPutCanceledContext(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Put(ctx, "late.png", []byte{1}); err == nil {
		t.Error("Put() with canceled context should fail")
	}
}
