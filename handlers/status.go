// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// ClientCounter reports live websocket clients
type ClientCounter interface {
	Count() int
}

type StatusHandler struct {
	startedAt time.Time
	clients   ClientCounter
}

func NewStatusHandler(startedAt time.Time, clients ClientCounter) *StatusHandler {
	return &StatusHandler{startedAt: startedAt, clients: clients}
}

// Root handles GET /
func (h *StatusHandler) Root(w http.ResponseWriter, r *http.Request) {
	connected := 0
	if h.clients != nil {
		connected = h.clients.Count()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Polling server is running! Started %s, %s connected.\n",
		humanize.Time(h.startedAt),
		english.Plural(connected, "client", "clients"),
	)
}

// Health handles GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
