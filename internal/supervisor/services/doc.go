// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

// Package services adapts Tilewall's long-running components to the
// suture.Service interface so the supervisor tree can restart them
// independently. Each wrapper is thin: it names the service for logs and
// translates between the component's lifecycle and suture's context-aware
// Serve contract.
package services
