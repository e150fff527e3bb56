// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the live polling server.

A teacher broadcasts multiple-choice polls to connected students over a
websocket, students answer, and results update live for everyone. A
chat sidebar and a kickable roster complete the classroom.

# Starting the Server

Configuration comes from flags, environment variables or a .env file:

	DATABASE_URL=postgres://... go run .

Or with flags:

	go run . -p 5000 -d "mongodb://localhost:27017/live_poll"

# Configuration

Required settings:

  - DATABASE_URL (-d): store connection string. MONGODB_URI is read
    when DATABASE_URL is unset.

Optional settings:

  - DATABASE_TYPE (-t): postgres, sqlite or mongo (inferred from the URL)
  - PORT (-p): Server port (default: 5000)
  - FRONTEND_URL (-origin): allowed browser origin (default: *)
  - TEACHER_NAME (-teacher): chat identity of the teacher (default: Teacher)
  - REDIS_URL (-redis): enables the pub/sub relay between instances

# Architecture

  - realtime: websocket hub, event dispatch, Redis relay
  - classroom: roster, polls, tally, chat, history
  - handlers: HTTP request handlers (history, liveness)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Entities and wire payloads
  - auth: Identifier generation, teacher identity
  - db: Store interface with SQL and MongoDB backends
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
