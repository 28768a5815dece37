// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package models defines data structures shared across the Tilewall application:
// wall tiles, submission history records, and the WebSocket event payloads.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Tile is the current occupant of one wall slot: the projection of the most
// recent accepted submission assigned to that index, or the empty tile.
//
// An empty tile has Name == "", Region == "", AnswerImageURL == "" and
// UpdatedAt == 0. UpdatedAt carries the occupying submission's CreatedAt as
// Unix milliseconds; zero means the slot was never filled or has been reset.
type Tile struct {
	Name           string `json:"name"`
	Region         string `json:"region"`
	Question       string `json:"question"`
	AnswerImageURL string `json:"answerImageUrl"`
	UpdatedAt      int64  `json:"updatedAt"`
}

// Empty reports whether the tile currently holds no submission.
func (t Tile) Empty() bool {
	return t.UpdatedAt == 0 && t.AnswerImageURL == ""
}

// Submission is one row of the append-only history log. Records are created
// once and never mutated or deleted; they remain the audit trail even after
// the tile they occupied is overwritten or the wall is reset.
//
// TileIndex is the slot assigned at creation time and is not updated when a
// later submission takes over that slot.
type Submission struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Question  string    `json:"question"`
	TileIndex int       `json:"tileIndex"`
	ImageKey  string    `json:"imageKey"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// WallState is the full snapshot pushed to a connecting viewer and rebroadcast
// after an administrative reset.
type WallState struct {
	Question string `json:"question"`
	Tiles    []Tile `json:"tiles"`
}
