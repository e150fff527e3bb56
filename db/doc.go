// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db is the persistent store for students, polls, responses and chat
messages.

# Opening a Store

Open picks the backend from the configured database type:

	store, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

Backends:

  - SQLStore on PostgreSQL (github.com/lib/pq)
  - SQLStore on SQLite (modernc.org/sqlite, pure Go; used by tests)
  - MongoStore on MongoDB (go.mongodb.org/mongo-driver)

# Schema Creation

OpenSQL runs CreateSchema, which is safe to call multiple times - it uses
IF NOT EXISTS for all tables and indexes. OpenMongo creates the matching
indexes.

# Tables / Collections

  - student (students): one row per live session, unique session_id
  - poll (polls): question text, time limit, creation time
  - poll_option (embedded in polls): ordered options
  - response (responses): unique (student_id, poll_id)
  - message (messages): chat lines

# Relationships

	poll 1──* poll_option
	poll 1──* response

Responses do not reference students with a foreign key: students are
deleted when their connection closes, their answers stay for history.

# Conventions

  - Single-record lookups return ErrNotFound when nothing matches.
  - Timestamps are UTC, truncated to milliseconds.
  - ListPolls returns newest first; every other list is oldest first.
  - SaveResponse is an upsert keyed by (student, poll).
*/
package db
