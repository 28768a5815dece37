// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package wall

import (
	"context"
	"crypto/subtle"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tilewall/tilewall/internal/blobstore"
	"github.com/tilewall/tilewall/internal/config"
	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/metrics"
	"github.com/tilewall/tilewall/internal/models"
)

// HistoryStore is the durable append-only submission log the service
// persists to. Satisfied by *store.Store.
type HistoryStore interface {
	InsertSubmission(ctx context.Context, sub *models.Submission) error
	LatestPerTile(ctx context.Context) (map[int]models.Submission, error)
}

// Broadcaster fans events out to connected viewers. Satisfied by
// *websocket.Hub.
type Broadcaster interface {
	BroadcastTileUpdate(update models.TileUpdate)
	BroadcastState(state models.WallState)
}

// Service owns every wall mutation. A single mutex serializes the entire
// accept path (assign slot → upload image → persist record → apply tile →
// broadcast) and the administrative reset, so two concurrent submissions
// can never observe the same wall state and pick the same empty slot, and
// a reset can never interleave with a half-applied submission.
//
// Validation runs before the lock: rejected submissions never contend.
type Service struct {
	mu    sync.Mutex
	wall  *Wall
	store HistoryStore
	blobs blobstore.ObjectStore // nil when image storage is not configured
	bc    Broadcaster

	question      string
	maxTextLen    int
	maxImageBytes int
	adminKey      string

	// Injectable for deterministic tests.
	intn func(int) int
	now  func() time.Time

	// lastCreated is the created_at of the most recently persisted
	// submission; new timestamps are clamped strictly after it so history
	// ordering (and recovery's latest-per-tile query) never sees ties from
	// a coarse clock. Guarded by mu.
	lastCreated time.Time
}

// NewService wires the wall state machine to its collaborators. blobs may
// be nil; submissions are then rejected as storage-unconfigured while the
// rest of the wall stays readable.
func NewService(w *Wall, hs HistoryStore, blobs blobstore.ObjectStore, bc Broadcaster, cfg *config.Config) *Service {
	return &Service{
		wall:          w,
		store:         hs,
		blobs:         blobs,
		bc:            bc,
		question:      cfg.Wall.Question,
		maxTextLen:    cfg.Wall.MaxTextLen,
		maxImageBytes: cfg.Wall.MaxImageBytes,
		adminKey:      cfg.Security.AdminKey,
		intn:          rand.Intn,
		now:           time.Now,
	}
}

// State returns the current full snapshot, used for state:init frames.
func (s *Service) State() models.WallState {
	return s.wall.Snapshot()
}

// Submit runs the full acceptance pipeline for one submission. On success
// the tile delta has already been broadcast to all viewers and the returned
// acknowledgment carries the 1-based tile number for the submitter. On
// failure the wall, the history log and every viewer are untouched; the
// returned error's UserMessage is safe to send back.
func (s *Service) Submit(ctx context.Context, req models.SubmissionRequest) (models.SubmissionOK, error) {
	v, verr := validateSubmission(req, s.maxTextLen, s.maxImageBytes, s.blobs != nil)
	if verr != nil {
		metrics.SubmissionsRejected.WithLabelValues(verr.Kind.MetricLabel()).Inc()
		return models.SubmissionOK{}, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.wall.Snapshot()
	index := assignSlot(snapshot.Tiles, s.intn)

	createdAt := s.now()
	if !createdAt.After(s.lastCreated) {
		createdAt = s.lastCreated.Add(time.Millisecond)
	}

	id := uuid.New()
	key := id.String() + ".png"
	url := "/img/" + key

	if err := s.blobs.Put(ctx, key, v.Image); err != nil {
		return models.SubmissionOK{}, s.reject(&Error{
			Kind:    KindPersistence,
			Message: "Something went wrong. Please try again.",
			Err:     err,
		})
	}

	sub := models.Submission{
		ID:        id,
		Name:      v.Name,
		Region:    v.Region,
		Question:  s.question,
		TileIndex: index,
		ImageKey:  key,
		ImageURL:  url,
		CreatedAt: createdAt,
	}
	if err := s.store.InsertSubmission(ctx, &sub); err != nil {
		// The uploaded image is orphaned; history is the source of truth,
		// so an unreferenced blob is harmless.
		return models.SubmissionOK{}, s.reject(&Error{
			Kind:    KindPersistence,
			Message: "Something went wrong. Please try again.",
			Err:     err,
		})
	}
	s.lastCreated = createdAt

	tile := models.Tile{
		Name:           v.Name,
		Region:         v.Region,
		Question:       s.question,
		AnswerImageURL: url,
		UpdatedAt:      createdAt.UnixMilli(),
	}
	s.wall.Apply(index, tile)

	metrics.SubmissionsAccepted.Inc()
	logging.Info().
		Str("submission_id", id.String()).
		Int("tile_index", index).
		Str("region", v.Region).
		Msg("Submission accepted")

	if s.bc != nil {
		s.bc.BroadcastTileUpdate(models.TileUpdate{Index: index, Tile: tile})
	}

	return models.SubmissionOK{PlacedAt: index + 1}, nil
}

// reject logs a pipeline failure and bumps the rejection counter.
func (s *Service) reject(werr *Error) *Error {
	metrics.SubmissionsRejected.WithLabelValues(werr.Kind.MetricLabel()).Inc()
	logging.Err(werr.Err).Str("kind", werr.Kind.MetricLabel()).Msg("Submission failed")
	return werr
}

// ClearAll resets every tile to empty and pushes a fresh full snapshot to
// all viewers. History is untouched; the wall simply stops projecting it.
//
// When an admin key is configured the request must carry it. With no key
// configured the reset is open, which is only acceptable for development
// deployments.
func (s *Service) ClearAll(req models.ClearAllRequest) error {
	if s.adminKey != "" &&
		subtle.ConstantTimeCompare([]byte(req.Key), []byte(s.adminKey)) != 1 {
		metrics.SubmissionsRejected.WithLabelValues(KindUnauthorized.MetricLabel()).Inc()
		return &Error{Kind: KindUnauthorized, Message: "Invalid admin key."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wall.ResetAll()
	metrics.WallResets.Inc()
	logging.Warn().Msg("Wall reset: all tiles cleared")

	if s.bc != nil {
		s.bc.BroadcastState(s.wall.Snapshot())
	}
	return nil
}

// Recover rebuilds the wall projection from the history log: for every
// tile index, the most recent submission becomes the occupant. Indices
// outside the current wall size (a shrunk deployment) are skipped. Must
// run before the server accepts connections; a store failure here is
// fatal at the caller.
func (s *Service) Recover(ctx context.Context) error {
	latest, err := s.store.LatestPerTile(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.wall.Size()
	restored := 0
	for index, sub := range latest {
		if index < 0 || index >= size {
			logging.Warn().
				Int("tile_index", index).
				Int("wall_size", size).
				Msg("Skipping recovered submission outside current wall")
			continue
		}
		s.wall.Apply(index, models.Tile{
			Name:           sub.Name,
			Region:         sub.Region,
			Question:       sub.Question,
			AnswerImageURL: sub.ImageURL,
			UpdatedAt:      sub.CreatedAt.UnixMilli(),
		})
		restored++
		if sub.CreatedAt.After(s.lastCreated) {
			s.lastCreated = sub.CreatedAt
		}
	}

	logging.Info().Int("tiles_restored", restored).Msg("Wall state recovered from history")
	return nil
}
