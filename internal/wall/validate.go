// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package wall

import (
	"encoding/base64"
	"strings"

	"github.com/tilewall/tilewall/internal/models"
)

// pngDataURLPrefix is the only accepted answer payload encoding.
const pngDataURLPrefix = "data:image/png;base64,"

// validated is a sanitized, accepted submission ready for the pipeline.
// The original base64 payload is discarded after decoding.
type validated struct {
	Name   string
	Region string
	Image  []byte
}

// validateSubmission applies the acceptance rules in order; the first
// failure wins and nothing downstream observes a rejected request.
//
//  1. name and region: trimmed, truncated, non-empty.
//  2. answer must be a base64 PNG data URL.
//  3. decoded size within the configured cap.
//  4. image storage must be configured (service availability, not data).
func validateSubmission(req models.SubmissionRequest, maxTextLen, maxImageBytes int, storageConfigured bool) (*validated, *Error) {
	name := sanitizeText(req.Name, maxTextLen)
	region := sanitizeText(req.Region, maxTextLen)

	if name == "" {
		return nil, &Error{Kind: KindValidation, Message: "Name is required."}
	}
	if region == "" {
		return nil, &Error{Kind: KindValidation, Message: "Region is required."}
	}

	if !strings.HasPrefix(req.AnswerDataURL, pngDataURLPrefix) {
		return nil, &Error{Kind: KindValidation, Message: "Answer must be a PNG drawing."}
	}

	image, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(req.AnswerDataURL, pngDataURLPrefix))
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "Answer must be a PNG drawing."}
	}

	if len(image) > maxImageBytes {
		return nil, &Error{Kind: KindValidation, Message: "Drawing too large."}
	}

	if !storageConfigured {
		return nil, &Error{Kind: KindUnavailable, Message: "R2 is not configured on server."}
	}

	return &validated{Name: name, Region: region, Image: image}, nil
}

// sanitizeText trims surrounding whitespace and truncates to max runes.
func sanitizeText(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
