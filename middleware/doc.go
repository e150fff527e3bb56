// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion
(duration_ms). For GET /ws the completion line is written when the
websocket closes.

# CORS Middleware

Enable cross-origin requests for the configured frontend:

	server := http.Server{
		Handler: middleware.CORS(cfg.FrontendURL)(mux),
	}

With "*" the request origin is reflected, so credentials still work.
With a concrete URL only that origin gets CORS headers. Allows methods
GET, POST, PUT, DELETE, OPTIONS with the Content-Type header.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch poll history")

Errors are written as {"error": "..."}, the shape the browser client reads.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Checks X-Forwarded-For, then X-Real-IP, then RemoteAddr.
*/
package middleware
