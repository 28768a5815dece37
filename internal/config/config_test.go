// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Wall.Size != 18 {
		t.Errorf("default wall size = %d, want 18", cfg.Wall.Size)
	}
	if cfg.Wall.MaxImageBytes != 900_000 {
		t.Errorf("default max image bytes = %d, want 900000", cfg.Wall.MaxImageBytes)
	}
	if cfg.Wall.MaxTextLen != 40 {
		t.Errorf("default max text len = %d, want 40", cfg.Wall.MaxTextLen)
	}
	if cfg.Server.Port != 8808 {
		t.Errorf("default port = %d, want 8808", cfg.Server.Port)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("default log format = %q, want json", cfg.Logging.Format)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WALL_SIZE", "24")
	t.Setenv("WALL_QUESTION", "What did you eat today?")
	t.Setenv("SECURITY_ADMIN_KEY", "sesame")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("BLOB_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Wall.Size != 24 {
		t.Errorf("wall size = %d, want 24", cfg.Wall.Size)
	}
	if cfg.Wall.Question != "What did you eat today?" {
		t.Errorf("question = %q", cfg.Wall.Question)
	}
	if cfg.Security.AdminKey != "sesame" {
		t.Errorf("admin key = %q, want sesame", cfg.Security.AdminKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Blob.Enabled {
		t.Error("blob store should be disabled")
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("wall:\n  size: 9\n  question: Nine tiles\nserver:\n  port: 8100\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Wall.Size != 9 {
		t.Errorf("wall size = %d, want 9", cfg.Wall.Size)
	}
	if cfg.Server.Port != 8100 {
		t.Errorf("port = %d, want 8100", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.Path == "" {
		t.Error("database path default lost")
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8100\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SERVER_PORT", "8200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 8200 {
		t.Errorf("port = %d, want 8200 (env should win)", cfg.Server.Port)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero wall size", func(c *Config) { c.Wall.Size = 0 }},
		{"oversized wall", func(c *Config) { c.Wall.Size = 10_000 }},
		{"empty question", func(c *Config) { c.Wall.Question = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"negative image cap", func(c *Config) { c.Wall.MaxImageBytes = -1 }},
		{"blob enabled without path", func(c *Config) { c.Blob.Enabled = true; c.Blob.Path = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"throttle without burst", func(c *Config) { c.Wall.SubmitPerSecond = 1; c.Wall.SubmitBurst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SERVER_PORT", "server.port"},
		{"WALL_MAX_IMAGE_BYTES", "wall.max_image_bytes"},
		{"SECURITY_ADMIN_KEY", "security.admin_key"},
		{"DATABASE_MAX_MEMORY", "database.max_memory"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimitDefaults(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Security.RateLimitReqs != 100 || cfg.Security.RateLimitWindow != time.Minute {
		t.Errorf("unexpected rate limit defaults: %d per %v",
			cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow)
	}
}
