// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package wall implements the shared mutable wall state machine: the
// fixed-size projection of "latest submission per slot", the slot
// assignment policy, the submission acceptance pipeline, and the recovery
// procedure that rebuilds the projection from durable history at startup.
//
// The wall itself holds no history; the store package is the source of
// truth. Every mutation flows through Service, which serializes the whole
// assign→upload→persist→apply critical section so concurrent submissions
// can never race on a slot choice.
package wall

import (
	"sync"

	"github.com/tilewall/tilewall/internal/metrics"
	"github.com/tilewall/tilewall/internal/models"
)

// Wall is the in-memory projection of the N tiles. All access goes through
// methods; the struct is never shared directly with handlers.
type Wall struct {
	mu       sync.RWMutex
	question string
	tiles    []models.Tile
}

// New creates a wall of size empty tiles.
func New(size int, question string) *Wall {
	tiles := make([]models.Tile, size)
	for i := range tiles {
		tiles[i] = emptyTile(question)
	}
	return &Wall{question: question, tiles: tiles}
}

// emptyTile is the cleared slot representation: attribution and image gone,
// updatedAt zero, question retained for display.
func emptyTile(question string) models.Tile {
	return models.Tile{Question: question}
}

// Size returns the fixed tile count.
func (w *Wall) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.tiles)
}

// Snapshot returns the question and an ordered copy of all tiles.
func (w *Wall) Snapshot() models.WallState {
	w.mu.RLock()
	defer w.mu.RUnlock()

	tiles := make([]models.Tile, len(w.tiles))
	copy(tiles, w.tiles)
	return models.WallState{Question: w.question, Tiles: tiles}
}

// Apply overwrites the tile at index with the new occupant. No merge
// semantics: the previous occupant is gone from the projection (it remains
// in history).
func (w *Wall) Apply(index int, tile models.Tile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tiles[index] = tile
	w.updateOccupiedGauge()
}

// ResetAll clears every tile back to its empty representation. The durable
// history store is deliberately untouched.
func (w *Wall) ResetAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.tiles {
		w.tiles[i] = emptyTile(w.question)
	}
	w.updateOccupiedGauge()
}

// updateOccupiedGauge recomputes the occupancy metric (mu held).
func (w *Wall) updateOccupiedGauge() {
	occupied := 0
	for _, t := range w.tiles {
		if !t.Empty() {
			occupied++
		}
	}
	metrics.TilesOccupied.Set(float64(occupied))
}
