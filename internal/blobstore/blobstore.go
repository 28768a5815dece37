// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package blobstore holds the rendered answer images. The wall and the
// history log store only opaque references (key and /img/ URL); the bytes
// live here, served back through the same-origin image proxy.
//
// The store is optional: when it is not configured the server still runs,
// but the submission validator rejects every drawing with its
// service-availability error.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for keys that were never stored.
var ErrNotFound = errors.New("blobstore: object not found")

// ObjectStore is the interface the wall service and the image proxy consume.
type ObjectStore interface {
	// Put stores data under key. Keys are immutable once written; callers
	// use fresh submission-derived keys and never overwrite.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	Close() error
}
