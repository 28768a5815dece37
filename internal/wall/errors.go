// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package wall

// Kind classifies a submission failure. Every failure is reported privately
// to the submitter and leaves wall state untouched; the kind decides the
// metric label and the server-side log level.
type Kind int

const (
	// KindValidation: bad or missing input. Client error, not logged as a
	// server problem.
	KindValidation Kind = iota

	// KindUnavailable: a required backend is not configured.
	KindUnavailable

	// KindPersistence: the image upload or durable insert failed. Logged
	// server-side; the client is told to retry.
	KindPersistence

	// KindUnauthorized: admin operation with a missing or wrong key.
	KindUnauthorized

	// KindThrottled: the connection exceeded its submission rate.
	KindThrottled
)

// MetricLabel returns the reason label used by the rejection counter.
func (k Kind) MetricLabel() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	case KindPersistence:
		return "persistence"
	case KindUnauthorized:
		return "unauthorized"
	case KindThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// Error is a submission or admin failure carrying the exact message shown
// to the submitter. Message is user-facing; Err (optional) is the wrapped
// internal cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage extracts the submitter-facing message from any error. Errors
// that are not *Error collapse to a generic message so internal details
// never leak onto the wire.
func UserMessage(err error) string {
	if werr, ok := err.(*Error); ok {
		return werr.Message
	}
	return "Something went wrong. Please try again."
}
