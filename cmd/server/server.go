// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tilewall/tilewall/internal/config"
)

// newHTTPServer builds the http.Server from configuration. ReadTimeout
// deliberately covers only the header/body read; WebSocket connections are
// hijacked by the upgrader and outlive these timeouts.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
