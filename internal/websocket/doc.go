// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

/*
Package websocket provides real-time bidirectional communication for the wall.

This package carries the whole client protocol: viewers receive the full wall
snapshot on connect and incremental tile deltas as submissions are accepted,
and submitters send their drawings up on the same connection. It uses the
gorilla/websocket library with a hub-client architecture.

Key Components:

  - Hub: Central message broker that manages client connections and broadcasts
  - Client: Represents a single WebSocket connection with read/write goroutines
  - Message: The {type, data} envelope every frame uses

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads frames, dispatches submissions to the wall service
  - writePump: Writes queued frames, sends protocol pings

Event Types:

  - state:init: full wall snapshot (on connect, and broadcast after a reset)
  - submission:new: client submits a drawing (name, region, PNG data URL)
  - submission:ok / submission:error: private outcome for the submitter only
  - tile:update: one tile delta, broadcast to every viewer
  - admin:clearAll: administrative wall reset
  - ping / pong: application-level keepalive

Delivery Semantics:

Broadcasts (state:init, tile:update) reach every connected client in
deterministic client-ID order. Acknowledgments and errors ride the
individual client's send channel and are never seen by other viewers.
A client whose send buffer stays full is dropped; it reconnects and
resynchronizes via state:init, so no per-client replay is needed.

Connection Lifecycle:

 1. Client connects via HTTP upgrade (internal/api)
 2. Hub registers client and queues state:init
 3. Client starts read/write goroutines
 4. Inbound submissions flow through the wall service; outcomes come back
 5. Client disconnects (network error or explicit close)
 6. Hub unregisters client and cleans up

Thread Safety:

The hub serializes lifecycle and broadcast handling on one goroutine with
a mutex-guarded client set; each client's connection is only touched by
its own two pumps.

Configuration:

  - writeWait: 10 seconds (time allowed to write a message)
  - pongWait: 60 seconds (time allowed to read a pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 2 MB (covers a base64 PNG at the size cap)

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/api: WebSocket endpoint handler
  - internal/wall: Submission pipeline and wall state
*/
package websocket
