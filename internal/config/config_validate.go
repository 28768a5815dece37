// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns the shared validator instance. validator v10
// caches struct metadata internally, so a single instance is reused.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that the configuration is complete and internally
// consistent. It runs tag-based validation first, then the cross-field
// rules tags cannot express.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("invalid %s: failed %q constraint", e.Namespace(), e.Tag())
		}
		return err
	}

	if c.Blob.Enabled && c.Blob.Path == "" {
		return fmt.Errorf("BLOB_PATH is required when BLOB_ENABLED=true")
	}

	if c.Wall.SubmitPerSecond > 0 && c.Wall.SubmitBurst < 1 {
		return fmt.Errorf("WALL_SUBMIT_BURST must be at least 1 when throttling is enabled")
	}

	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("SECURITY_RATE_LIMIT_REQS must be positive")
	}

	return nil
}
