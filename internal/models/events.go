// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package models

import (
	"github.com/goccy/go-json"
)

// WebSocket event payloads. Every frame on the wire is a {type, data}
// envelope (websocket.Message); these are the data shapes per event type.

// SubmissionRequest is the client→server payload of a submission:new event.
// AnswerDataURL is a base64 PNG data URL ("data:image/png;base64,...").
type SubmissionRequest struct {
	Name          string `json:"name"`
	Region        string `json:"region"`
	AnswerDataURL string `json:"answerDataUrl"`
}

// UnmarshalJSON decodes the payload leniently: absent or non-string field
// values coerce to empty strings, so a frame like {"name":123} is rejected
// by validation as a missing name rather than failing the whole decode.
func (r *SubmissionRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          json.RawMessage `json:"name"`
		Region        json.RawMessage `json:"region"`
		AnswerDataURL json.RawMessage `json:"answerDataUrl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = textField(raw.Name)
	r.Region = textField(raw.Region)
	r.AnswerDataURL = textField(raw.AnswerDataURL)
	return nil
}

// textField returns the JSON string value, or "" for anything else.
func textField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// ClearAllRequest is the client→server payload of an admin:clearAll event.
// Key must match the configured admin key when one is set.
type ClearAllRequest struct {
	Key string `json:"key"`
}

// SubmissionOK is the private acknowledgment to a submitter.
// PlacedAt is the 1-based tile number, for display.
type SubmissionOK struct {
	PlacedAt int `json:"placedAt"`
}

// SubmissionError is the private failure report to a submitter.
type SubmissionError struct {
	Message string `json:"message"`
}

// TileUpdate is the incremental delta broadcast to every viewer when a
// submission is accepted.
type TileUpdate struct {
	Index int  `json:"index"`
	Tile  Tile `json:"tile"`
}
