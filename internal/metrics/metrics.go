// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package metrics provides Prometheus instrumentation for Tilewall:
// submission outcomes, wall mutations, WebSocket fan-out, storage latency,
// and HTTP request metrics. All metrics are registered via promauto against
// the default registry and exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission pipeline

	SubmissionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tilewall_submissions_accepted_total",
			Help: "Total number of submissions accepted and placed on the wall",
		},
	)

	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tilewall_submissions_rejected_total",
			Help: "Total number of submissions rejected before mutating the wall",
		},
		[]string{"reason"}, // "validation", "unavailable", "persistence", "throttled"
	)

	WallResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tilewall_wall_resets_total",
			Help: "Total number of administrative full-wall resets",
		},
	)

	TilesOccupied = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilewall_tiles_occupied",
			Help: "Current number of wall tiles holding a submission",
		},
	)

	// WebSocket fan-out

	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilewall_websocket_clients",
			Help: "Current number of connected WebSocket viewers",
		},
	)

	BroadcastMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tilewall_broadcast_messages_total",
			Help: "Total number of events broadcast to all viewers",
		},
		[]string{"type"}, // "state:init", "tile:update"
	)

	// Storage

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tilewall_store_op_duration_seconds",
			Help:    "Duration of durable history store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "insert", "latest_per_tile", "export"
	)

	BlobOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tilewall_blob_op_duration_seconds",
			Help:    "Duration of image object store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "put", "get"
	)

	BlobOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tilewall_blob_op_errors_total",
			Help: "Total number of failed image object store operations",
		},
		[]string{"operation"},
	)

	// HTTP surface

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tilewall_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tilewall_api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tilewall_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOp records the duration of one history store operation.
func RecordStoreOp(operation string, start time.Time) {
	StoreOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordBlobOp records one blob store operation and its outcome.
func RecordBlobOp(operation string, start time.Time, err error) {
	BlobOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		BlobOpErrors.WithLabelValues(operation).Inc()
	}
}
