// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the entities, event payloads and views shared by
every other package.

# Entities

	Student  - a registered connection (name, socketId, isKicked, joinedAt)
	Poll     - question text, ordered options, time limit, creation time
	Option   - option text and correctness flag
	Response - one student's answer to one poll
	Message  - one chat line

Entities carry both json and bson tags. JSON field names match what the
browser client reads (_id, camelCase), so the same struct is written to
the store, broadcast over the websocket and returned over HTTP.

# Event Payloads

Inbound payloads are named after the event they arrive with:

	register-student → RegisterStudentRequest
	chat:message     → ChatMessageRequest
	create-poll      → CreatePollRequest
	submit-answer    → SubmitAnswerRequest
	kick-student     → KickStudentRequest

# Views

OptionTally and PollHistory are computed from a poll and its responses
and are never stored. PollResults is the live tally broadcast after
every answer; PollSnapshot is the compact form used by the
poll-history event.
*/
package models
