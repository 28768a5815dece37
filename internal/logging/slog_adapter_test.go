// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func slogToBuffer() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := &SlogHandler{logger: NewTestLogger(&buf)}
	return slog.New(handler), &buf
}

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	logger, buf := slogToBuffer()

	logger.Info("service started", "component", "hub", "clients", int64(3))

	out := buf.String()
	for _, want := range []string{`"message":"service started"`, `"component":"hub"`, `"clients":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandlerLevels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
	}

	for _, tt := range tests {
		logger, buf := slogToBuffer()
		logger.Log(t.Context(), tt.level, "msg")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("level %v output = %s, want %s", tt.level, buf.String(), tt.want)
		}
	}
}

func TestSlogHandlerGroupsPrefixKeys(t *testing.T) {
	logger, buf := slogToBuffer()

	logger.WithGroup("wall").Info("msg", "tiles", int64(18))

	if !strings.Contains(buf.String(), `"wall.tiles":18`) {
		t.Errorf("grouped key missing: %s", buf.String())
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	logger, buf := slogToBuffer()

	logger.With("component", "api").Info("request handled")

	if !strings.Contains(buf.String(), `"component":"api"`) {
		t.Errorf("pre-set attr missing: %s", buf.String())
	}
}

func TestNewSlogLogger(t *testing.T) {
	if NewSlogLogger() == nil {
		t.Fatal("NewSlogLogger() = nil")
	}
}
