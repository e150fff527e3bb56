// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers of the polling server.
Everything interactive happens over the websocket (see package realtime);
HTTP only serves history and liveness.

# Handler Types

  - HistoryHandler: poll history with per-option tallies
  - StatusHandler: liveness text and health check

Handlers are created via constructor functions:

	historyHandler := handlers.NewHistoryHandler(store)
	statusHandler := handlers.NewStatusHandler(time.Now(), hub)

# Poll History

	GET /api/polls/history → GetHistory

Returns a JSON array, newest poll first:

	[{"_id": "...", "question": "...", "createdAt": "...",
	  "options": [{"_id": "...", "text": "...", "isCorrect": true,
	               "count": 2, "percentage": 67}]}]

Percentages are whole numbers rounded half up; a poll without answers
reports zero everywhere. Store failures return 500 with
{"error": "Failed to fetch poll history"}.

# Liveness

	GET /       → Root (start time and connected client count)
	GET /health → Health ("OK")
*/
package handlers
