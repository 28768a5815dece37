// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/models"
)

// Error codes for API responses.
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUnavailable   = "SERVICE_UNAVAILABLE"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	writeEnvelope(w, statusCode, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError writes an error envelope with a machine-readable code.
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	writeEnvelope(w, statusCode, models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
