// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockHub struct {
	serveErr error
	calls    int
}

func (m *mockHub) RunWithContext(ctx context.Context) error {
	m.calls++
	if m.serveErr != nil {
		return m.serveErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService_Delegates(t *testing.T) {
	hub := &mockHub{}
	svc := NewWebSocketHubService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return")
	}

	if hub.calls != 1 {
		t.Errorf("RunWithContext called %d times, want 1", hub.calls)
	}
}

func TestWebSocketHubService_PropagatesError(t *testing.T) {
	hub := &mockHub{serveErr: errors.New("hub crashed")}
	svc := NewWebSocketHubService(hub)

	if err := svc.Serve(context.Background()); !errors.Is(err, hub.serveErr) {
		t.Errorf("Serve() = %v, want hub error", err)
	}
}

func TestWebSocketHubService_String(t *testing.T) {
	if got := NewWebSocketHubService(&mockHub{}).String(); got != "websocket-hub" {
		t.Errorf("String() = %q", got)
	}
}
