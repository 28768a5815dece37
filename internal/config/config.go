// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package config loads and validates Tilewall configuration via koanf v2
// with layered sources (highest priority wins):
//
//  1. Environment variables (SERVER_PORT, WALL_SIZE, SECURITY_ADMIN_KEY, ...)
//  2. Config file (config.yaml, or CONFIG_PATH override)
//  3. Built-in defaults
package config

import "time"

// Config is the root configuration for the Tilewall server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Wall     WallConfig     `koanf:"wall"`
	Database DatabaseConfig `koanf:"database"`
	Blob     BlobConfig     `koanf:"blob"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// WallConfig holds the wall's fixed dimensions and submission limits.
//
// Size is fixed at startup; changing it requires a restart. Question is the
// single prompt shown with every tile (modeled per-tile in the data model for
// forward compatibility, populated from this value today).
type WallConfig struct {
	Size     int    `koanf:"size" validate:"gte=1,lte=512"`
	Question string `koanf:"question" validate:"required"`

	// MaxImageBytes caps the decoded PNG payload size.
	MaxImageBytes int `koanf:"max_image_bytes" validate:"gt=0"`

	// MaxTextLen caps the stored length of name and region after trimming.
	MaxTextLen int `koanf:"max_text_len" validate:"gt=0"`

	// SubmitPerSecond / SubmitBurst throttle submissions per connection.
	// Zero SubmitPerSecond disables the throttle.
	SubmitPerSecond float64 `koanf:"submit_per_second"`
	SubmitBurst     int     `koanf:"submit_burst"`
}

// DatabaseConfig holds DuckDB settings for the durable submission history.
//
// Environment variables:
//   - DATABASE_PATH: database file path (default: /data/tilewall.duckdb)
//   - DATABASE_MAX_MEMORY: DuckDB memory limit (default: 512MB)
//   - DATABASE_THREADS: worker threads, 0 = runtime.NumCPU()
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// BlobConfig holds the image object store settings. When Enabled is false
// the server runs, but every submission is rejected with the storage
// not-configured error; the wall stays read-only.
type BlobConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// SecurityConfig holds admin-key and HTTP hardening settings.
//
// AdminKey gates the export endpoints and, when set, the admin:clearAll
// WebSocket event. An empty key leaves exports inaccessible (requests are
// rejected) and the reset event open, suitable only for development.
type SecurityConfig struct {
	AdminKey        string        `koanf:"admin_key"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8808,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Wall: WallConfig{
			Size:            18,
			Question:        "Draw what home means to you",
			MaxImageBytes:   900_000,
			MaxTextLen:      40,
			SubmitPerSecond: 1,
			SubmitBurst:     3,
		},
		Database: DatabaseConfig{
			Path:      "/data/tilewall.duckdb",
			MaxMemory: "512MB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Blob: BlobConfig{
			Enabled:    true,
			Path:       "/data/images",
			SyncWrites: true,
		},
		Security: SecurityConfig{
			AdminKey:        "",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
