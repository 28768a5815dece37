// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tilewall/tilewall/internal/metrics"
	"github.com/tilewall/tilewall/internal/models"
)

// InsertSubmission appends one accepted submission to the history log.
// ID and CreatedAt must already be assigned by the caller; the wall service
// owns timestamp assignment so that created_at stays monotonic under its
// serialization lock.
func (s *Store) InsertSubmission(ctx context.Context, sub *models.Submission) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer metrics.RecordStoreOp("insert", start)

	const query = `
		INSERT INTO submissions
			(id, name, region, question, tile_index, image_key, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.conn.ExecContext(ctx, query,
		sub.ID, sub.Name, sub.Region, sub.Question,
		sub.TileIndex, sub.ImageKey, sub.ImageURL, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", sub.ID, err)
	}
	return nil
}

// LatestPerTile returns, for each tile index present in history, the
// submission with the greatest created_at. Used by the recovery procedure
// to rebuild the wall projection after a restart.
func (s *Store) LatestPerTile(ctx context.Context) (map[int]models.Submission, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer metrics.RecordStoreOp("latest_per_tile", start)

	const query = `
		SELECT s.id, s.name, s.region, s.question, s.tile_index,
		       s.image_key, s.image_url, s.created_at
		FROM submissions s
		JOIN (
			SELECT tile_index, max(created_at) AS max_created
			FROM submissions
			GROUP BY tile_index
		) latest
		  ON s.tile_index = latest.tile_index
		 AND s.created_at = latest.max_created
		ORDER BY s.tile_index`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest per tile: %w", err)
	}
	defer func() { _ = rows.Close() }()

	latest := make(map[int]models.Submission)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		// Exact created_at ties produce multiple rows per index; the first
		// scanned row wins.
		if _, ok := latest[sub.TileIndex]; !ok {
			latest[sub.TileIndex] = sub
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest per tile: %w", err)
	}

	return latest, nil
}

// AllOrdered streams the full submission history ordered by created_at
// ascending, invoking fn once per row. Used by the admin export endpoints.
func (s *Store) AllOrdered(ctx context.Context, fn func(models.Submission) error) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer metrics.RecordStoreOp("export", start)

	const query = `
		SELECT id, name, region, question, tile_index, image_key, image_url, created_at
		FROM submissions
		ORDER BY created_at ASC`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query submissions for export: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return err
		}
		if err := fn(sub); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the total number of submissions in history.
func (s *Store) Count(ctx context.Context) (int64, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var count int64
	err := s.conn.QueryRowContext(ctx, "SELECT count(*) FROM submissions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (models.Submission, error) {
	var sub models.Submission
	// uuid.UUID implements sql.Scanner, accepting both string and byte forms.
	err := row.Scan(&sub.ID, &sub.Name, &sub.Region, &sub.Question,
		&sub.TileIndex, &sub.ImageKey, &sub.ImageURL, &sub.CreatedAt)
	if err != nil {
		return models.Submission{}, fmt.Errorf("scan submission: %w", err)
	}
	return sub, nil
}
