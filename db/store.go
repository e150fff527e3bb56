// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/models"
)

// ErrNotFound is returned when a single-record lookup matches nothing
var ErrNotFound = errors.New("record not found")

// Store is the single source of truth for students, polls, responses and
// chat messages. Nothing above it keeps a second copy of this state.
type Store interface {
	// Students
	UpsertStudent(ctx context.Context, name, sessionID string) (*models.Student, error)
	GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error)
	FindStudentByName(ctx context.Context, name string) (*models.Student, error)
	KickStudentsByName(ctx context.Context, name string) ([]string, error)
	DeleteStudentBySession(ctx context.Context, sessionID string) error
	ListActiveStudents(ctx context.Context) ([]models.Student, error)
	CountActiveStudents(ctx context.Context) (int, error)

	// Polls
	CreatePoll(ctx context.Context, poll *models.Poll) error
	GetPoll(ctx context.Context, id string) (*models.Poll, error)
	ListPolls(ctx context.Context, limit int) ([]models.Poll, error)

	// Responses
	SaveResponse(ctx context.Context, resp *models.Response) error
	ListResponses(ctx context.Context, pollID string) ([]models.Response, error)
	ListAllResponses(ctx context.Context) ([]models.Response, error)
	CountResponses(ctx context.Context, pollID string) (int, error)

	// Chat
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context) ([]models.Message, error)

	Close() error
}

// Open connects to the backend named by dbType and prepares it for use
func Open(ctx context.Context, dbType, url string) (Store, error) {
	switch dbType {
	case cliparse.DatabaseMongo:
		s, err := OpenMongo(ctx, url)
		if err != nil {
			return nil, err
		}
		return s, nil
	case cliparse.DatabasePostgres, cliparse.DatabaseSQLite:
		s, err := OpenSQL(ctx, dbType, url)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// now returns the current time the way every backend stores it
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// LatestPoll returns the most recently created poll, or ErrNotFound
func LatestPoll(ctx context.Context, s Store) (*models.Poll, error) {
	polls, err := s.ListPolls(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(polls) == 0 {
		return nil, ErrNotFound
	}
	return &polls[0], nil
}
