// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tilewall/tilewall/internal/blobstore"
	"github.com/tilewall/tilewall/internal/config"
	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/models"
	"github.com/tilewall/tilewall/internal/websocket"
)

// HistoryStore is the read surface the HTTP layer needs from the durable
// store. Satisfied by *store.Store.
type HistoryStore interface {
	Ping(ctx context.Context) error
	AllOrdered(ctx context.Context, fn func(models.Submission) error) error
}

// Handler holds the collaborators HTTP requests are translated onto.
type Handler struct {
	store HistoryStore
	blobs blobstore.ObjectStore // nil when image storage is disabled
	hub   *websocket.Hub
	svc   websocket.WallService
	cfg   *config.Config

	upgrader  gorillaws.Upgrader
	startTime time.Time
	version   string
}

// NewHandler creates the HTTP handler set.
func NewHandler(hs HistoryStore, blobs blobstore.ObjectStore, hub *websocket.Hub, svc websocket.WallService, cfg *config.Config, version string) *Handler {
	h := &Handler{
		store:     hs,
		blobs:     blobs,
		hub:       hub,
		svc:       svc,
		cfg:       cfg,
		startTime: time.Now(),
		version:   version,
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin mirrors the CORS allowlist for WebSocket upgrades. Browsers
// do not enforce CORS on WebSocket connections, so the server must.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser client
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Health reports process liveness and store connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Store:         "ok",
		Clients:       h.hub.GetClientCount(),
	}

	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		logging.Err(err).Msg("health check: store unreachable")
		status.Status = "degraded"
		status.Store = "unreachable"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, status)
}

// WebSocket upgrades the connection and hands it to the hub. The client
// immediately receives a state:init frame with the full wall.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, h.svc, h.cfg.Wall.SubmitPerSecond, h.cfg.Wall.SubmitBurst)
	h.hub.Register <- client
	client.Start()
}

// Image serves a stored drawing through the same origin, so the frontend
// never needs direct access to the object store. Keys are opaque
// submission-derived names; anything path-like is rejected outright.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Image not found")
		return
	}

	if h.blobs == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Image not found")
		return
	}

	data, err := h.blobs.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Image not found")
			return
		}
		logging.Err(err).Str("key", key).Msg("image fetch failed")
		respondError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "Image temporarily unavailable")
		return
	}

	// Keys embed a fresh UUID per submission, so the bytes never change.
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Str("key", key).Msg("image write aborted")
	}
}
