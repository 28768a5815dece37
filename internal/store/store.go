// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package store is the durable history store: an append-only DuckDB log of
// every accepted submission. It is the source of truth across restarts; the
// in-memory wall is only a projection rebuilt from it at startup.
//
// Submission rows are inserted once and never updated or deleted. The wall
// reset operation deliberately does not touch this store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tilewall/tilewall/internal/config"
	"github.com/tilewall/tilewall/internal/logging"
)

// defaultOpTimeout bounds store operations that arrive without a deadline.
const defaultOpTimeout = 30 * time.Second

// Store wraps the DuckDB connection holding the submissions log.
type Store struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// Open creates the database connection and initializes the schema.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists before DuckDB touches the file.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load of extensions to prevent hangs in
	// restricted network environments; nothing here needs them.
	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{conn: conn, cfg: cfg}

	if err := s.createSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// createSchema creates the submissions table and its recovery index.
func (s *Store) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()

	const schema = `
		CREATE TABLE IF NOT EXISTS submissions (
			id UUID PRIMARY KEY,
			name VARCHAR NOT NULL,
			region VARCHAR NOT NULL,
			question VARCHAR NOT NULL,
			tile_index INTEGER NOT NULL,
			image_key VARCHAR NOT NULL,
			image_url VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create submissions table: %w", err)
	}

	const index = `
		CREATE INDEX IF NOT EXISTS idx_submissions_tile_created
		ON submissions (tile_index, created_at)`
	if _, err := s.conn.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create submissions index: %w", err)
	}

	return nil
}

// Ping checks that the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.conn.PingContext(ctx)
}

// Close flushes the WAL with a checkpoint and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("failed to checkpoint database before close")
	}

	return s.conn.Close()
}

// ensureContext adds the default timeout to contexts without a deadline.
func (s *Store) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultOpTimeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, defaultOpTimeout)
	}
	return ctx, func() {}
}
