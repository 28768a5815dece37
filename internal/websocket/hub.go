// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/metrics"
	"github.com/tilewall/tilewall/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
// This enables clear observability in logs and metrics.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Event types carried in the Message envelope.
const (
	// EventStateInit carries the full wall snapshot: sent privately to every
	// connecting client, and broadcast to everyone after an admin reset.
	EventStateInit = "state:init"

	// EventSubmissionNew is the client→server submission request.
	EventSubmissionNew = "submission:new"

	// EventSubmissionOK privately acknowledges an accepted submission.
	EventSubmissionOK = "submission:ok"

	// EventSubmissionError privately reports a rejected submission.
	EventSubmissionError = "submission:error"

	// EventTileUpdate is the incremental delta broadcast on every accepted
	// submission.
	EventTileUpdate = "tile:update"

	// EventClearAll is the client→server administrative reset request.
	EventClearAll = "admin:clearAll"

	EventPing = "ping"
	EventPong = "pong"
)

// Message is the {type, data} envelope every frame on the wire uses.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StateProvider supplies the wall snapshot for state:init frames.
// Satisfied by *wall.Service.
type StateProvider interface {
	State() models.WallState
}

// Hub maintains the set of active clients and fans messages out to them.
// Broadcast events reach every client; submission acknowledgments and
// errors travel on the individual client's send channel and never pass
// through the hub.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	state StateProvider
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// SetStateProvider wires the snapshot source for state:init frames. Must be
// called before the hub accepts registrations; kept separate from NewHub
// because the hub and the wall service reference each other.
func (h *Hub) SetStateProvider(p StateProvider) {
	h.state = p
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// When the context is canceled:
//  1. All connected clients are gracefully closed
//  2. The method returns ctx.Err()
//
// This allows the hub to be restarted by a supervisor without leaving
// orphaned connections.
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle events (Register/Unregister)
// - Priority 3: Broadcast messages
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// DETERMINISM: Priority-based selection prevents non-deterministic
		// ordering when multiple channels are ready simultaneously.

		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
			// Context not canceled, continue
		}

		// Priority 2: Handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
			// No lifecycle events pending
		}

		// Priority 3: Handle broadcast messages or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// registerClient adds the client and pushes the full wall snapshot onto its
// private send channel so a new viewer renders immediately.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.ConnectedClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")

	if h.state != nil {
		if client.trySend(Message{Type: EventStateInit, Data: h.state.State()}) {
			metrics.BroadcastMessages.WithLabelValues(EventStateInit).Inc()
		} else {
			logging.Warn().Msg("send channel full on connect, dropping state:init")
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.ConnectedClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is NOT logged as an error because context
// cancellation is expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()
	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		// Fallback for any future context error types
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients in a deterministic order.
// DETERMINISM: Sorts clients by ID to ensure consistent iteration order.
// This prevents non-deterministic message delivery order which could cause:
// - Inconsistent client behavior in tests
// - Non-reproducible race conditions
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Track clients to remove (can't modify map during iteration)
	var toRemove []*Client

	for _, client := range clients {
		if !client.trySend(message) {
			// Channel full or closed, mark for removal
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		client.closeSend()
		delete(h.clients, client)
	}

	metrics.BroadcastMessages.WithLabelValues(message.Type).Inc()
	metrics.ConnectedClients.Set(float64(len(h.clients)))
}

// closeAllClients gracefully closes all connected WebSocket clients.
// Called during shutdown to ensure clean termination.
// DETERMINISM: Closes clients in ID order to ensure consistent shutdown behavior.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		client.closeSend()
		delete(h.clients, client)
	}
	metrics.ConnectedClients.Set(0)
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastTileUpdate fans one tile delta out to every connected viewer.
// Implements the wall service's Broadcaster interface.
func (h *Hub) BroadcastTileUpdate(update models.TileUpdate) {
	message := Message{
		Type: EventTileUpdate,
		Data: update,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Int("tile_index", update.Index).Msg("broadcast channel full, dropping tile:update")
	}
}

// BroadcastState fans the full wall snapshot out to every connected viewer.
// Used after an administrative reset, when every tile changed at once.
func (h *Hub) BroadcastState(state models.WallState) {
	message := Message{
		Type: EventStateInit,
		Data: state,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Msg("broadcast full wall state")
	default:
		logging.Warn().Msg("broadcast channel full, dropping state:init")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
