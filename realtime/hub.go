// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Publisher fans hub orders out to every server instance
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// ErrHubClosed is returned when registering on a hub that has shut down
var ErrHubClosed = errors.New("hub closed")

// Hub is the registry of live clients on this instance, keyed by session ID
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool

	// sessions counts connections whose disconnect cleanup has not finished
	sessions sync.WaitGroup

	publisher Publisher
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// UsePublisher routes broadcasts and disconnects through p. Every instance,
// this one included, applies them when they come back from the relay.
func (h *Hub) UsePublisher(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publisher = p
}

// register adds c and opens a session that must be ended with done
func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	h.clients[c.sessionID] = c
	h.sessions.Add(1)
	slog.Info("client connected", "session_id", c.sessionID, "clients", len(h.clients))
	return nil
}

// done ends a session opened by register, after its cleanup has run
func (h *Hub) done() {
	h.sessions.Done()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.sessionID]; ok && cur == c {
		delete(h.clients, c.sessionID)
	}
	c.close()
	slog.Info("client disconnected", "session_id", c.sessionID, "clients", len(h.clients))
}

// Count returns the number of live clients on this instance
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every connected client. Delivery is best effort.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := EncodeFrame(event, payload)
	if err != nil {
		slog.Error("failed to encode broadcast", "event", event, "error", err)
		return
	}

	if p := h.getPublisher(); p != nil {
		if err := h.publish(p, Envelope{Kind: EnvelopeBroadcast, Frame: data}); err == nil {
			return
		}
	}
	h.broadcastLocal(data)
}

// Disconnect sends kicked to the session and closes it, wherever it is connected
func (h *Hub) Disconnect(sessionID string) {
	if p := h.getPublisher(); p != nil {
		if err := h.publish(p, Envelope{Kind: EnvelopeDisconnect, SessionID: sessionID}); err == nil {
			return
		}
	}
	h.disconnectLocal(sessionID)
}

func (h *Hub) broadcastLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		c.enqueue(data)
	}
}

func (h *Hub) disconnectLocal(sessionID string) {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	c.Send(EventKicked, nil)
	c.close()
	slog.Info("client kicked", "session_id", sessionID)
}

// apply executes an envelope received from the relay on local clients
func (h *Hub) apply(env Envelope) {
	switch env.Kind {
	case EnvelopeBroadcast:
		h.broadcastLocal(env.Frame)
	case EnvelopeDisconnect:
		h.disconnectLocal(env.SessionID)
	default:
		slog.Warn("unknown relay envelope", "kind", env.Kind)
	}
}

// Close disconnects every client on this instance and refuses new ones.
// Disconnect cleanup runs afterwards on each connection; see Wait.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// Wait blocks until every registered session has finished its disconnect
// cleanup, or ctx is done. Call it after Close.
func (h *Hub) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) getPublisher() Publisher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.publisher
}

// publish falls back to local delivery (by returning the error) when the relay is down
func (h *Hub) publish(p Publisher, env Envelope) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.Publish(ctx, env)
	if err != nil {
		slog.Error("relay publish failed, delivering locally", "kind", env.Kind, "error", err)
	}
	return err
}
