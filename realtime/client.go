// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Client is one live websocket connection. The write pump is the only
// goroutine writing to conn; everyone else goes through the send queue.
type Client struct {
	conn      *websocket.Conn
	sessionID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
	}
}

// SessionID returns the identifier assigned on connect
func (c *Client) SessionID() string {
	return c.sessionID
}

// Send queues an event for this client only
func (c *Client) Send(event string, payload any) {
	data, err := EncodeFrame(event, payload)
	if err != nil {
		slog.Error("failed to encode frame", "event", event, "error", err)
		return
	}
	c.enqueue(data)
}

// enqueue never blocks. A client whose queue is full is dropped.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		slog.Warn("slow client dropped", "session_id", c.sessionID)
		c.closed = true
		close(c.send)
		return false
	}
}

// close stops the write pump once queued frames are flushed
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads frames until the connection fails and hands each one to
// dispatch, in order
func (c *Client) readPump(dispatch func(*Client, Frame)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.Warn("websocket read failed", "session_id", c.sessionID, "error", err)
			}
			return
		}

		frame, err := DecodeFrame(raw)
		if err != nil {
			slog.Warn("bad frame", "session_id", c.sessionID, "error", err)
			c.Send(EventError, errorPayload("", err))
			continue
		}
		dispatch(c, frame)
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("websocket write failed", "session_id", c.sessionID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
