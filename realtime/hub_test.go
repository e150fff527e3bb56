// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
)

// fakeClient registers a client with no connection; tests read its queue directly
func fakeClient(h *Hub, sessionID string) *Client {
	c := newClient(nil, sessionID)
	h.register(c)
	return c
}

func nextFrame(t *testing.T, c *Client) (Frame, bool) {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			return Frame{}, false
		}
		f, err := DecodeFrame(data)
		if err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		return f, true
	default:
		t.Fatal("Expected a queued frame")
		return Frame{}, false
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	a := fakeClient(h, "a")
	b := fakeClient(h, "b")

	h.Broadcast(EventPollStarted, map[string]string{"text": "Q"})

	for _, c := range []*Client{a, b} {
		f, ok := nextFrame(t, c)
		if !ok || f.Type != EventPollStarted {
			t.Errorf("Client %s: expected poll-started, got %+v", c.sessionID, f)
		}
	}
}

func TestHub_Disconnect(t *testing.T) {
	h := NewHub()
	target := fakeClient(h, "target")
	other := fakeClient(h, "other")

	h.Disconnect("target")

	f, ok := nextFrame(t, target)
	if !ok || f.Type != EventKicked {
		t.Fatalf("Expected kicked frame, got %+v", f)
	}
	if _, ok := nextFrame(t, target); ok {
		t.Error("Expected send queue to be closed after kicked")
	}

	select {
	case <-other.send:
		t.Error("Other client should not receive anything")
	default:
	}

	// unknown session is a no-op
	h.Disconnect("nobody")
}

func TestHub_SlowClientDropped(t *testing.T) {
	h := NewHub()
	c := fakeClient(h, "slow")

	for i := 0; i < sendBuffer; i++ {
		if !c.enqueue([]byte(`{"type":"x"}`)) {
			t.Fatalf("enqueue %d failed before the queue was full", i)
		}
	}
	if c.enqueue([]byte(`{"type":"x"}`)) {
		t.Fatal("Expected enqueue to fail on a full queue")
	}
	if !c.closed {
		t.Error("Expected slow client to be closed")
	}
	// sends after close are ignored, not panics
	c.Send(EventSession, nil)
}

func TestHub_UnregisterAndClose(t *testing.T) {
	h := NewHub()
	a := fakeClient(h, "a")
	fakeClient(h, "b")

	h.unregister(a)
	if h.Count() != 1 {
		t.Errorf("Expected 1 client, got %d", h.Count())
	}
	// a second unregister must not close the queue twice
	h.unregister(a)

	h.Close()
	if h.Count() != 0 {
		t.Errorf("Expected 0 clients after Close, got %d", h.Count())
	}
}

func TestHub_CloseRefusesAndWaits(t *testing.T) {
	h := NewHub()
	fakeClient(h, "a")
	h.Close()

	if err := h.register(newClient(nil, "late")); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Expected ErrHubClosed, got %v", err)
	}

	// "a" has not finished its cleanup yet
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected Wait to time out, got %v", err)
	}

	h.done()
	if err := h.Wait(context.Background()); err != nil {
		t.Errorf("Wait failed after done: %v", err)
	}
}

type loopbackPublisher struct {
	hub  *Hub
	sent []Envelope
	err  error
}

func (p *loopbackPublisher) Publish(_ context.Context, env Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, env)
	p.hub.apply(env)
	return nil
}

func TestHub_Publisher(t *testing.T) {
	t.Run("orders go through the publisher", func(t *testing.T) {
		h := NewHub()
		pub := &loopbackPublisher{hub: h}
		h.UsePublisher(pub)
		c := fakeClient(h, "a")

		h.Broadcast(EventChatMessage, map[string]string{"text": "hi"})
		h.Disconnect("a")

		if len(pub.sent) != 2 {
			t.Fatalf("Expected 2 envelopes, got %d", len(pub.sent))
		}
		if pub.sent[0].Kind != EnvelopeBroadcast || pub.sent[1].Kind != EnvelopeDisconnect {
			t.Errorf("Unexpected envelope kinds: %s, %s", pub.sent[0].Kind, pub.sent[1].Kind)
		}

		if f, _ := nextFrame(t, c); f.Type != EventChatMessage {
			t.Errorf("Expected chat:message, got %s", f.Type)
		}
		if f, _ := nextFrame(t, c); f.Type != EventKicked {
			t.Errorf("Expected kicked, got %s", f.Type)
		}
	})

	t.Run("falls back to local delivery", func(t *testing.T) {
		h := NewHub()
		h.UsePublisher(&loopbackPublisher{hub: h, err: errors.New("redis down")})
		c := fakeClient(h, "a")

		h.Broadcast(EventPollStarted, nil)

		if f, ok := nextFrame(t, c); !ok || f.Type != EventPollStarted {
			t.Errorf("Expected local poll-started, got %+v", f)
		}
	})
}

func TestHub_ApplyUnknownEnvelope(t *testing.T) {
	h := NewHub()
	c := fakeClient(h, "a")

	h.apply(Envelope{Kind: "bogus"})

	select {
	case <-c.send:
		t.Error("Unknown envelope should not deliver anything")
	default:
	}
}

func TestEncodeDecodeFrame(t *testing.T) {
	data, err := EncodeFrame(EventRegistrationSuccess, nil)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if string(data) != `{"type":"registration:success"}` {
		t.Errorf("Expected data to be omitted, got %s", data)
	}

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"with data", `{"type":"kick-student","data":{"name":"bob"}}`, false},
		{"without data", `{"type":"can-ask-new"}`, false},
		{"not json", `kick bob`, true},
		{"missing type", `{"data":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeFrame(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errMalformed) {
				t.Errorf("Expected errMalformed, got %v", err)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	req, err := decode[struct {
		Name string `json:"name"`
	}](json.RawMessage(`{"name":"bob"}`))
	if err != nil || req.Name != "bob" {
		t.Errorf("Expected bob, got %+v (%v)", req, err)
	}

	if _, err := decode[struct{ N int }](json.RawMessage(`"oops"`)); !errors.Is(err, errMalformed) {
		t.Errorf("Expected errMalformed, got %v", err)
	}

	if _, err := decode[struct{ N int }](nil); err != nil {
		t.Errorf("Missing payload should decode to zero value, got %v", err)
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name     string
		frontend string
		origin   string
		want     bool
	}{
		{"wildcard", "*", "http://evil.example", true},
		{"unset", "", "http://evil.example", true},
		{"match", "http://localhost:5173", "http://localhost:5173", true},
		{"trailing slash", "http://localhost:5173/", "http://localhost:5173", true},
		{"mismatch", "http://localhost:5173", "http://evil.example", false},
		{"no origin header", "http://localhost:5173", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := checkOrigin(tt.frontend)(req); got != tt.want {
				t.Errorf("checkOrigin(%q)(%q) = %v, want %v", tt.frontend, tt.origin, got, tt.want)
			}
		})
	}
}
