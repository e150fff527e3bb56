// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/handlers"
	"github.com/danielhkuo/live-poll/middleware"
	"github.com/danielhkuo/live-poll/realtime"
)

func NewRouter(store db.Store, hub *realtime.Hub, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	historyHandler := handlers.NewHistoryHandler(store)
	statusHandler := handlers.NewStatusHandler(time.Now(), hub)
	gateway := realtime.NewGateway(hub, store, cfg)

	// Health check
	mux.HandleFunc("GET /health", statusHandler.Health)

	// Poll history
	mux.HandleFunc("GET /api/polls/history", middleware.WithLogging(historyHandler.GetHistory))

	// Realtime gateway
	mux.HandleFunc("GET /ws", middleware.WithLogging(gateway.ServeWS))

	// Root endpoint
	mux.HandleFunc("GET /{$}", statusHandler.Root)

	return mux
}
