// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package api

import (
	"crypto/subtle"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/models"
)

// exportColumns is the header row shared by both export formats, matching
// the persisted record shape.
var exportColumns = []string{"id", "name", "region", "question", "tile_index", "image_key", "image_url", "created_at"}

// exportRow flattens one submission into export cell order.
func exportRow(sub models.Submission) []string {
	return []string{
		sub.ID.String(),
		sub.Name,
		sub.Region,
		sub.Question,
		strconv.Itoa(sub.TileIndex),
		sub.ImageKey,
		sub.ImageURL,
		sub.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// authorizeExport checks the admin key query parameter. With no key
// configured the export endpoints are fully closed: history contains
// personal attributions and must never leak by default.
func (h *Handler) authorizeExport(w http.ResponseWriter, r *http.Request) bool {
	configured := h.cfg.Security.AdminKey
	if configured == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Export is not enabled")
		return false
	}
	supplied := r.URL.Query().Get("key")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) != 1 {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

// ExportCSV streams the full submission history as CSV, ordered by
// creation time ascending. Rows are flushed as they arrive from the store.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeExport(w, r) {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="submissions.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		logging.Err(err).Msg("csv export: header write failed")
		return
	}

	err := h.store.AllOrdered(r.Context(), func(sub models.Submission) error {
		return cw.Write(exportRow(sub))
	})
	if err != nil {
		// Headers are already out; all we can do is truncate the stream.
		logging.Err(err).Msg("csv export aborted")
		return
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.Err(err).Msg("csv export: flush failed")
	}
}

// ExportXLSX streams the full submission history as a spreadsheet. The
// workbook is assembled in memory; wall history is bounded by submission
// rate, not dataset size, so this stays small.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeExport(w, r) {
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Debug().Err(err).Msg("xlsx export: close failed")
		}
	}()

	const sheet = "Submissions"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Export failed")
		return
	}

	rowNum := 1
	err := h.store.AllOrdered(r.Context(), func(sub models.Submission) error {
		rowNum++
		cells := exportRow(sub)
		row := make([]interface{}, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &row)
	})
	if err != nil {
		logging.Err(err).Msg("xlsx export failed")
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="submissions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		logging.Err(err).Msg("xlsx export: body write failed")
	}
}
