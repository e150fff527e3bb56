// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifier generation and the teacher identity check.

# Record IDs

Store records get UUIDv4 identifiers:

	id := auth.NewID()

Random hex IDs serve short opaque keys, such as the instance tag a
Redis relay stamps on what it publishes:

	id, err := auth.GenerateID(4)  // 8 hex characters

# Session IDs

Every websocket connection is given a session ID when it connects:

	sid, err := auth.GenerateSessionID()

Session IDs are 20 URL-safe base64 characters (120 bits). Student records
are keyed by them, so a reconnect always produces a new student record.

# Teacher Identity

There is no login. The teacher's client posts chat messages under a fixed
sender name (default "Teacher", configurable with TEACHER_NAME):

	if !auth.IsTeacher(sender, cfg.TeacherName) {
		// sender must be a registered, non-kicked student
	}
*/
package auth
