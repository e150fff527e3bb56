// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 5000)
  - DatabaseURL: Store connection string (required)
  - DatabaseType: postgres, sqlite or mongo (inferred from the URL)
  - FrontendURL: Allowed cross-origin base URL (default: *)
  - TeacherName: Chat sender reserved for the teacher (default: Teacher)
  - RedisURL: Enables the Redis relay when set

# CLI Flags

	-p         Server port
	-d         Database URL
	-t         Database type
	-origin    Allowed frontend origin
	-teacher   Teacher sender name
	-redis     Redis URL

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d (MONGODB_URI is also accepted)
	DATABASE_TYPE → -t
	FRONTEND_URL  → -origin
	TEACHER_NAME  → -teacher
	REDIS_URL     → -redis

CLI flags take precedence over environment variables. main loads a .env
file into the environment before calling ParseFlags.

# Database Type Inference

	mongodb://, mongodb+srv://     → mongo
	postgres://, postgresql://     → postgres
	anything else (file path, DSN) → sqlite
*/
package cliparse
