// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package classroom holds the domain logic of a live classroom session:
the roster, the poll lifecycle, the chat relay and poll history.

Every manager is a thin struct over a db.Store. Nothing is cached in
memory; each call reads what it needs from the store, so several server
instances sharing one database see the same classroom.

# Roster

Students register with a name on their session. Registration is an
upsert keyed by session, so re-registering renames the record instead of
adding one. Kick flags every record carrying the name; the gateway then
disconnects the affected sessions.

# Polls

	Create    - validate and store a poll (default time limit 60s)
	Submit    - upsert one answer per (student, poll) and re-tally
	CanAskNew - true when every current student answered the latest poll

Submit ignores unknown sessions, polls and options: it returns a nil
result and no error, and the gateway broadcasts nothing.

# Tally

Tally is pure. Percentages are integers rounded half up from the exact
ratio, so 1 of 3 is 33 and 2 of 3 is 67. With no responses every count
and percentage is zero.

# Chat

Only the configured teacher identity or a registered, non-kicked
student may post. Everything else is dropped silently.
*/
package classroom
