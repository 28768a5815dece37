// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tilewall/tilewall/internal/config"
	"github.com/tilewall/tilewall/internal/middleware"
)

// Router assembles the HTTP surface around a Handler.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router for the given handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.PrometheusMetrics)

	// The WebSocket endpoint carries its own per-connection throttling and
	// must not count against the HTTP rate limit: a single long-lived
	// connection is one request.
	r.Get("/ws", router.handler.WebSocket)

	// Health probes poll on short intervals and must never hit the limiter.
	r.Get("/health", router.handler.Health)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.Security.RateLimitReqs, router.cfg.Security.RateLimitWindow))

		r.Get("/img/{key}", router.handler.Image)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())

		r.Route("/admin", func(r chi.Router) {
			r.Get("/export.csv", router.handler.ExportCSV)
			r.Get("/export.xlsx", router.handler.ExportXLSX)
		})
	})

	return r
}
