// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package models

import "time"

// APIResponse is the standard envelope for every JSON HTTP response.
//
// Success:
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
//
// Error:
//
//	{"status":"error","data":null,"error":{"code":"UNAUTHORIZED","message":"..."},"metadata":{...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error body with a machine-readable code and a
// human-readable message.
//
// Codes used by Tilewall: VALIDATION_ERROR, SERVICE_UNAVAILABLE,
// PERSISTENCE_ERROR, UNAUTHORIZED, NOT_FOUND, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Store         string `json:"store"`
	Clients       int    `json:"clients"`
}
