// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package main is the entry point for the Tilewall server.
//
// Tilewall is a shared real-time answer wall: visitors draw an answer to a
// single question, submissions land on one of a fixed number of tiles, and
// every connected viewer sees the wall change live over WebSocket. History
// is durable; the wall projection is rebuilt from it on every start.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config file, environment variables (Koanf v2)
//  2. Durable store: DuckDB submission history with startup schema creation
//  3. Image store: BadgerDB object store for drawing PNGs (optional)
//  4. Wall: recovery of the latest-per-tile projection from history
//  5. WebSocket hub: real-time fan-out to connected clients
//  6. HTTP server: health, image proxy, metrics, admin exports, /ws
//
// The hub and the HTTP server run under a suture supervision tree; either
// one can crash and restart without taking down the other.
//
// # Configuration
//
// Layered via Koanf v2 (highest priority wins): environment variables,
// config file (CONFIG_PATH or ./config.yaml), built-in defaults. Examples:
//
//	export WALL_QUESTION="What does home taste like?"
//	export WALL_SIZE=18
//	export DATABASE_PATH=/data/tilewall.duckdb
//	export BLOB_PATH=/data/images
//	export SECURITY_ADMIN_KEY=$(openssl rand -hex 16)
//	./tilewall
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP listener
// drains in-flight requests, the hub closes all WebSocket clients, and the
// stores are closed last so every accepted submission is on disk.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tilewall/tilewall/internal/api"
	"github.com/tilewall/tilewall/internal/blobstore"
	"github.com/tilewall/tilewall/internal/config"
	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/store"
	"github.com/tilewall/tilewall/internal/supervisor"
	"github.com/tilewall/tilewall/internal/supervisor/services"
	"github.com/tilewall/tilewall/internal/wall"
	ws "github.com/tilewall/tilewall/internal/websocket"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; configuration is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Int("wall_size", cfg.Wall.Size).
		Str("db_path", cfg.Database.Path).
		Bool("blob_enabled", cfg.Blob.Enabled).
		Msg("Starting Tilewall")

	// Durable history first: nothing else is meaningful without it.
	hs, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open history store")
	}
	defer func() {
		if err := hs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing history store")
		}
	}()

	// Image storage is optional: without it the wall is read-only and every
	// submission is rejected with a storage-unconfigured error.
	var blobs blobstore.ObjectStore
	if cfg.Blob.Enabled {
		bs, err := blobstore.Open(&cfg.Blob)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open image store")
		}
		defer func() {
			if err := bs.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing image store")
			}
		}()
		blobs = bs
	} else {
		logging.Warn().Msg("Image storage disabled; submissions will be rejected")
	}

	// Wire the wall: hub and service reference each other, so the state
	// provider is attached after construction.
	hub := ws.NewHub()
	w := wall.New(cfg.Wall.Size, cfg.Wall.Question)
	svc := wall.NewService(w, hs, blobs, hub, cfg)
	hub.SetStateProvider(svc)

	// Rebuild the tile projection from history before accepting traffic.
	if err := svc.Recover(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to recover wall state from history")
	}

	handler := api.NewHandler(hs, blobs, hub, svc, cfg, version)
	router := api.NewRouter(handler, cfg)
	server := newHTTPServer(cfg, router.Setup())

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	logging.Info().Str("addr", server.Addr).Msg("Tilewall is up")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Tilewall stopped")
}
