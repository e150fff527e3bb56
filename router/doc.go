// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP routes of the polling server.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	hub := realtime.NewHub()
	mux := router.NewRouter(store, hub, cfg)

The hub is passed in so main can close it on shutdown and attach the
Redis relay.

# Endpoints

	GET /                  - Liveness text
	GET /health            - "OK"
	GET /api/polls/history - Poll history with tallies
	GET /ws                - Websocket gateway

CORS is applied by the caller around the whole mux.
*/
package router
