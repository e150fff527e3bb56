// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime is the websocket gateway between browsers and the
classroom managers.

# Connections

GET /ws upgrades to a websocket. Each connection gets a fresh session ID,
announced with a session event, and two goroutines: a read pump that
handles inbound events one at a time and a write pump that owns all
writes. Outbound frames go through a buffered queue; a client whose
queue fills up is dropped.

# Frames

Every message in both directions is JSON:

	{"type": "submit-answer", "data": {"questionId": "...", "answer": "..."}}

Events without a payload omit data.

# Error Boundary

Each inbound event runs with a 10 second context and a recover. Any
failure is logged and answered with

	{"type": "error", "data": {"event": "create-poll", "message": "..."}}

to the sender only. Validation and payload errors carry their message;
store failures are reported as "internal error".

# Relay

With a Relay started, Broadcast and Disconnect are published to Redis
and every instance applies them to its own clients, including the one
that published. If a publish fails the hub delivers locally.
*/
package realtime
