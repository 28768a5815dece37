// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

/*
Package api provides the HTTP surface of Tilewall using the Chi router.

Routes:

  - GET /health: liveness and store connectivity
  - GET /ws: WebSocket upgrade into the wall protocol (internal/websocket)
  - GET /img/{key}: same-origin proxy for submitted drawings
  - GET /metrics: Prometheus metrics
  - GET /admin/export.csv: full submission history, key-gated
  - GET /admin/export.xlsx: full submission history, key-gated

Everything stateful lives elsewhere: the wall pipeline in internal/wall, the
fan-out in internal/websocket, durable history in internal/store and image
bytes in internal/blobstore. Handlers here translate HTTP to those
collaborators and shape responses.

All JSON responses use the models.APIResponse envelope. Export endpoints
stream their body instead and never buffer the full history in memory.
*/
package api
