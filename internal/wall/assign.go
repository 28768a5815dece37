// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package wall

import "github.com/tilewall/tilewall/internal/models"

// assignSlot chooses the tile index for the next accepted submission.
//
// Empty slots are preferred: one is picked uniformly at random so the wall
// fills with visual variety instead of left to right. Once the wall is
// full, the slot with the oldest occupant is evicted; ties on updatedAt go
// to the lowest index (strict less-than during a left-to-right scan).
//
// intn must behave like rand.Intn. The caller serializes assignment against
// all other assignments and mutations; assignSlot itself only reads tiles.
func assignSlot(tiles []models.Tile, intn func(int) int) int {
	empty := make([]int, 0, len(tiles))
	for i, t := range tiles {
		if t.Empty() {
			empty = append(empty, i)
		}
	}

	if len(empty) > 0 {
		return empty[intn(len(empty))]
	}

	oldest := 0
	for i := 1; i < len(tiles); i++ {
		if tiles[i].UpdatedAt < tiles[oldest].UpdatedAt {
			oldest = i
		}
	}
	return oldest
}
