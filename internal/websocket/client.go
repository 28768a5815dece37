// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tilewall/tilewall/internal/logging"
	"github.com/tilewall/tilewall/internal/metrics"
	"github.com/tilewall/tilewall/internal/models"
	"github.com/tilewall/tilewall/internal/wall"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2 * 1024 * 1024 // generous: a base64 PNG near the cap plus envelope

	// submitTimeout bounds one trip through the submission pipeline
	// (image upload plus durable insert).
	submitTimeout = 30 * time.Second
)

const throttledMessage = "Too many submissions. Please slow down."

// WallService is the submission pipeline the client dispatches inbound
// events to. Satisfied by *wall.Service.
type WallService interface {
	Submit(ctx context.Context, req models.SubmissionRequest) (models.SubmissionOK, error)
	ClearAll(req models.ClearAllRequest) error
}

// clientIDCounter generates unique, monotonically increasing IDs for clients.
// DETERMINISM: This ensures clients can be sorted in a consistent order for
// broadcast operations, eliminating non-deterministic map iteration order.
var clientIDCounter atomic.Uint64

// inboundMessage is the raw client frame before dispatch; Data stays
// undecoded until the event type selects a payload shape.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	// id is a unique identifier for this client, used for deterministic ordering.
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	// sendMu guards sendClosed. The hub closes send on eviction or shutdown
	// while readPump may still be queueing private replies; every close and
	// every queue attempt goes through closeSend/trySend so a reply after
	// eviction is dropped instead of panicking on a closed channel.
	sendMu     sync.Mutex
	sendClosed bool

	svc WallService

	// limiter throttles submission:new frames per connection; nil disables
	// throttling.
	limiter *rate.Limiter
}

// NewClient creates a new Client with a unique deterministic ID.
// perSecond <= 0 disables submission throttling.
func NewClient(hub *Hub, conn *websocket.Conn, svc WallService, perSecond float64, burst int) *Client {
	var limiter *rate.Limiter
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, 256),
		svc:     svc,
		limiter: limiter,
	}
}

// ID returns the client's unique identifier for deterministic ordering.
func (c *Client) ID() uint64 {
	return c.id
}

// readPump pumps messages from the websocket connection into the wall
// service. One goroutine per connection; inbound events from a single
// client are handled strictly in order.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		c.dispatch(msg)
	}
}

// dispatch routes one inbound frame. Unknown event types are ignored so
// protocol additions don't break older servers mid-rollout.
func (c *Client) dispatch(msg inboundMessage) {
	switch msg.Type {
	case EventPing:
		c.sendPrivate(Message{Type: EventPong})

	case EventSubmissionNew:
		c.handleSubmission(msg.Data)

	case EventClearAll:
		c.handleClearAll(msg.Data)

	default:
		logging.Debug().Str("type", msg.Type).Msg("ignoring unknown websocket event")
	}
}

// handleSubmission runs one submission through throttling and the wall
// pipeline, reporting the outcome privately to this client only. The
// accepted-tile broadcast to everyone else happens inside the service.
func (c *Client) handleSubmission(data json.RawMessage) {
	if c.limiter != nil && !c.limiter.Allow() {
		metrics.SubmissionsRejected.WithLabelValues(wall.KindThrottled.MetricLabel()).Inc()
		c.sendPrivate(Message{Type: EventSubmissionError, Data: models.SubmissionError{Message: throttledMessage}})
		return
	}

	var req models.SubmissionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logging.Debug().Err(err).Msg("malformed submission payload")
		c.sendPrivate(Message{Type: EventSubmissionError, Data: models.SubmissionError{Message: "Answer must be a PNG drawing."}})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	ok, err := c.svc.Submit(ctx, req)
	if err != nil {
		c.sendPrivate(Message{Type: EventSubmissionError, Data: models.SubmissionError{Message: wall.UserMessage(err)}})
		return
	}
	c.sendPrivate(Message{Type: EventSubmissionOK, Data: ok})
}

// handleClearAll forwards an administrative reset request. The resulting
// full-state broadcast happens inside the service; only failures come back
// privately.
func (c *Client) handleClearAll(data json.RawMessage) {
	var req models.ClearAllRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			logging.Debug().Err(err).Msg("malformed clearAll payload")
		}
	}

	if err := c.svc.ClearAll(req); err != nil {
		c.sendPrivate(Message{Type: EventSubmissionError, Data: models.SubmissionError{Message: wall.UserMessage(err)}})
	}
}

// trySend queues a message without blocking. Returns false when the buffer
// is full or the channel has already been closed.
func (c *Client) trySend(msg Message) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. Idempotent: the hub may
// evict a slow client and later process its unregister for the same client.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// sendPrivate queues a message for this client only, dropping it if the
// send buffer is full or already closed (the write pump has stalled; the
// read deadline will reap the connection).
func (c *Client) sendPrivate(msg Message) {
	if !c.trySend(msg) {
		logging.Warn().Str("type", msg.Type).Msg("send channel unavailable, dropping private message")
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
