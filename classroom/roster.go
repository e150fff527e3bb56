// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/live-poll/db"
)

var ErrInvalidName = errors.New("name is required")

// Roster tracks registered students. The participant list is always read
// from the store; nothing is cached between calls.
type Roster struct {
	store db.Store
}

func NewRoster(store db.Store) *Roster {
	return &Roster{store: store}
}

// KickResult describes the outcome of a kick
type KickResult struct {
	Found        bool
	SessionIDs   []string
	Participants []string
}

// Register upserts the student for sessionID and returns the participant list
func (r *Roster) Register(ctx context.Context, name, sessionID string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	st, err := r.store.UpsertStudent(ctx, name, sessionID)
	if err != nil {
		return nil, err
	}
	slog.Info("student registered", "student_id", st.ID, "name", name, "session_id", sessionID)

	return r.Participants(ctx)
}

// Participants returns the names of all non-kicked students in join order
func (r *Roster) Participants(ctx context.Context) ([]string, error) {
	students, err := r.store.ListActiveStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	names := make([]string, len(students))
	for i, st := range students {
		names[i] = st.Name
	}
	return names, nil
}

// Kick flags every student named name. An unknown name is a no-op (Found is false).
func (r *Roster) Kick(ctx context.Context, name string) (KickResult, error) {
	sessions, err := r.store.KickStudentsByName(ctx, name)
	if err != nil {
		return KickResult{}, err
	}
	if len(sessions) == 0 {
		return KickResult{}, nil
	}
	slog.Info("student kicked", "name", name, "sessions", len(sessions))

	participants, err := r.Participants(ctx)
	if err != nil {
		return KickResult{}, err
	}
	return KickResult{Found: true, SessionIDs: sessions, Participants: participants}, nil
}

// Unregister removes the student of a closed session and returns the participant list
func (r *Roster) Unregister(ctx context.Context, sessionID string) ([]string, error) {
	if err := r.store.DeleteStudentBySession(ctx, sessionID); err != nil {
		return nil, err
	}
	return r.Participants(ctx)
}
