// Tilewall - Shared Real-Time Answer Wall
// Copyright 2026 Tilewall Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tilewall/tilewall

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tilewall/tilewall/internal/models"
	"github.com/tilewall/tilewall/internal/wall"
)

type fakeWallService struct {
	submits   []models.SubmissionRequest
	submitOK  models.SubmissionOK
	submitErr error
	clears    []models.ClearAllRequest
	clearErr  error
}

func (f *fakeWallService) Submit(_ context.Context, req models.SubmissionRequest) (models.SubmissionOK, error) {
	f.submits = append(f.submits, req)
	if f.submitErr != nil {
		return models.SubmissionOK{}, f.submitErr
	}
	return f.submitOK, nil
}

func (f *fakeWallService) ClearAll(req models.ClearAllRequest) error {
	f.clears = append(f.clears, req)
	return f.clearErr
}

// dispatchClient builds a client without a connection; dispatch never
// touches conn, so the pumps stay off.
func dispatchClient(svc WallService) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  NewHub(),
		send: make(chan Message, 16),
		svc:  svc,
	}
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestNewClientAssignsIncreasingIDs(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, nil, 0, 0)
	b := NewClient(hub, nil, nil, 0, 0)
	if a.ID() >= b.ID() {
		t.Errorf("IDs not increasing: %d then %d", a.ID(), b.ID())
	}
	if a.limiter != nil {
		t.Error("limiter should be nil when throttling is disabled")
	}
}

func TestDispatchPing(t *testing.T) {
	c := dispatchClient(&fakeWallService{})
	c.dispatch(inboundMessage{Type: EventPing})

	msg := receive(t, c)
	if msg.Type != EventPong {
		t.Errorf("reply type = %q, want %q", msg.Type, EventPong)
	}
}

func TestDispatchSubmissionAccepted(t *testing.T) {
	svc := &fakeWallService{submitOK: models.SubmissionOK{PlacedAt: 7}}
	c := dispatchClient(svc)

	req := models.SubmissionRequest{Name: "Ada", Region: "Lisbon", AnswerDataURL: "data:image/png;base64,AAAA"}
	c.dispatch(inboundMessage{Type: EventSubmissionNew, Data: rawJSON(t, req)})

	if len(svc.submits) != 1 || svc.submits[0].Name != "Ada" {
		t.Fatalf("service submits = %+v", svc.submits)
	}

	msg := receive(t, c)
	if msg.Type != EventSubmissionOK {
		t.Fatalf("reply type = %q, want %q", msg.Type, EventSubmissionOK)
	}
	ok, isOK := msg.Data.(models.SubmissionOK)
	if !isOK || ok.PlacedAt != 7 {
		t.Errorf("reply payload = %+v", msg.Data)
	}
}

func TestDispatchSubmissionRejected(t *testing.T) {
	svc := &fakeWallService{submitErr: &wall.Error{Kind: wall.KindValidation, Message: "Name is required."}}
	c := dispatchClient(svc)

	c.dispatch(inboundMessage{Type: EventSubmissionNew, Data: rawJSON(t, models.SubmissionRequest{})})

	msg := receive(t, c)
	if msg.Type != EventSubmissionError {
		t.Fatalf("reply type = %q, want %q", msg.Type, EventSubmissionError)
	}
	serr, isErr := msg.Data.(models.SubmissionError)
	if !isErr || serr.Message != "Name is required." {
		t.Errorf("reply payload = %+v", msg.Data)
	}
}

func TestDispatchSubmissionInternalErrorIsMasked(t *testing.T) {
	svc := &fakeWallService{submitErr: context.DeadlineExceeded}
	c := dispatchClient(svc)

	c.dispatch(inboundMessage{Type: EventSubmissionNew, Data: rawJSON(t, models.SubmissionRequest{Name: "a", Region: "b"})})

	msg := receive(t, c)
	serr, isErr := msg.Data.(models.SubmissionError)
	if !isErr || serr.Message != "Something went wrong. Please try again." {
		t.Errorf("internal error leaked: %+v", msg.Data)
	}
}

func TestDispatchMalformedSubmissionPayload(t *testing.T) {
	svc := &fakeWallService{}
	c := dispatchClient(svc)

	c.dispatch(inboundMessage{Type: EventSubmissionNew, Data: json.RawMessage(`{"name":`)})

	if len(svc.submits) != 0 {
		t.Error("malformed payload must not reach the service")
	}
	msg := receive(t, c)
	if msg.Type != EventSubmissionError {
		t.Errorf("reply type = %q, want %q", msg.Type, EventSubmissionError)
	}
}

func TestDispatchThrottlesSubmissions(t *testing.T) {
	svc := &fakeWallService{submitOK: models.SubmissionOK{PlacedAt: 1}}
	c := dispatchClient(svc)
	c.limiter = rate.NewLimiter(rate.Limit(0.001), 1) // one token, near-zero refill

	payload := rawJSON(t, models.SubmissionRequest{Name: "a", Region: "b", AnswerDataURL: "x"})
	c.dispatch(inboundMessage{Type: EventSubmissionNew, Data: payload})
	c.dispatch(inboundMessage{Type: EventSubmissionNew, Data: payload})

	if len(svc.submits) != 1 {
		t.Fatalf("service received %d submissions, want 1 (second throttled)", len(svc.submits))
	}

	first := receive(t, c)
	if first.Type != EventSubmissionOK {
		t.Errorf("first reply = %q, want %q", first.Type, EventSubmissionOK)
	}
	second := receive(t, c)
	serr, isErr := second.Data.(models.SubmissionError)
	if second.Type != EventSubmissionError || !isErr || serr.Message != throttledMessage {
		t.Errorf("second reply = %+v", second)
	}
}

func TestDispatchClearAll(t *testing.T) {
	t.Run("success is silent", func(t *testing.T) {
		svc := &fakeWallService{}
		c := dispatchClient(svc)

		c.dispatch(inboundMessage{Type: EventClearAll, Data: rawJSON(t, models.ClearAllRequest{Key: "secret"})})

		if len(svc.clears) != 1 || svc.clears[0].Key != "secret" {
			t.Fatalf("service clears = %+v", svc.clears)
		}
		select {
		case msg := <-c.send:
			t.Errorf("unexpected private reply %+v", msg)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("failure reported privately", func(t *testing.T) {
		svc := &fakeWallService{clearErr: &wall.Error{Kind: wall.KindUnauthorized, Message: "Invalid admin key."}}
		c := dispatchClient(svc)

		c.dispatch(inboundMessage{Type: EventClearAll, Data: rawJSON(t, models.ClearAllRequest{Key: "wrong"})})

		msg := receive(t, c)
		serr, isErr := msg.Data.(models.SubmissionError)
		if msg.Type != EventSubmissionError || !isErr || serr.Message != "Invalid admin key." {
			t.Errorf("reply = %+v", msg)
		}
	})

	t.Run("missing payload still dispatches", func(t *testing.T) {
		svc := &fakeWallService{}
		c := dispatchClient(svc)

		c.dispatch(inboundMessage{Type: EventClearAll})

		if len(svc.clears) != 1 {
			t.Errorf("service clears = %+v, want one empty request", svc.clears)
		}
	})
}

func TestDispatchSubmissionWithNonTextNameReachesValidation(t *testing.T) {
	svc := &fakeWallService{submitErr: &wall.Error{Kind: wall.KindValidation, Message: "Name is required."}}
	c := dispatchClient(svc)

	payload := json.RawMessage(`{"name":123,"region":"Lisbon","answerDataUrl":"data:image/png;base64,AAAA"}`)
	c.dispatch(inboundMessage{Type: EventSubmissionNew, Data: payload})

	// A non-string name coerces to "" instead of failing the decode, so the
	// service sees the request and validation reports the missing name.
	if len(svc.submits) != 1 {
		t.Fatalf("service received %d submissions, want 1", len(svc.submits))
	}
	if got := svc.submits[0]; got.Name != "" || got.Region != "Lisbon" {
		t.Errorf("decoded request = %+v", got)
	}

	msg := receive(t, c)
	serr, isErr := msg.Data.(models.SubmissionError)
	if msg.Type != EventSubmissionError || !isErr || serr.Message != "Name is required." {
		t.Errorf("reply = %+v", msg)
	}
}

func TestPrivateSendAfterEvictionDoesNotPanic(t *testing.T) {
	svc := &fakeWallService{submitOK: models.SubmissionOK{PlacedAt: 1}}
	c := dispatchClient(svc)

	// The hub closes the send channel when it evicts a slow client or shuts
	// down while readPump may still be dispatching; replies queued after
	// that must be dropped, not panic.
	c.closeSend()
	c.closeSend() // eviction then unregister close the same client twice

	c.dispatch(inboundMessage{Type: EventPing})
	c.dispatch(inboundMessage{Type: EventSubmissionNew,
		Data: rawJSON(t, models.SubmissionRequest{Name: "a", Region: "b", AnswerDataURL: "x"})})

	if len(svc.submits) != 1 {
		t.Fatalf("service received %d submissions, want 1", len(svc.submits))
	}
}

func TestDispatchUnknownEventIgnored(t *testing.T) {
	svc := &fakeWallService{}
	c := dispatchClient(svc)

	c.dispatch(inboundMessage{Type: "unknown:event", Data: json.RawMessage(`{}`)})

	if len(svc.submits) != 0 || len(svc.clears) != 0 {
		t.Error("unknown event reached the service")
	}
	select {
	case msg := <-c.send:
		t.Errorf("unexpected reply %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
