// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/models"
)

// openSQLiteStore creates a fresh SQLite database in a temp dir
func openSQLiteStore(t *testing.T) Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.db")
	s, err := OpenSQL(context.Background(), cliparse.DatabaseSQLite, "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// openMongoStore uses MONGODB_TEST_URI; the test is skipped without it
func openMongoStore(t *testing.T) Store {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx := context.Background()
	s, err := OpenMongo(ctx, uri)
	if err != nil {
		t.Fatalf("Failed to open mongo: %v", err)
	}
	if err := s.Drop(ctx); err != nil {
		t.Fatalf("Failed to clean mongo: %v", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}
	t.Cleanup(func() {
		s.Drop(context.Background())
		s.Close()
	})
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, openSQLiteStore)
}

func TestMongoStore(t *testing.T) {
	runStoreSuite(t, openMongoStore)
}

func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Run("upsert student is keyed by session", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		first, err := s.UpsertStudent(ctx, "alice", "sid-1")
		if err != nil {
			t.Fatalf("UpsertStudent failed: %v", err)
		}
		second, err := s.UpsertStudent(ctx, "alicia", "sid-1")
		if err != nil {
			t.Fatalf("UpsertStudent failed: %v", err)
		}

		if first.ID != second.ID {
			t.Errorf("Expected same record, got %s and %s", first.ID, second.ID)
		}
		if second.Name != "alicia" {
			t.Errorf("Expected name to be updated, got %s", second.Name)
		}

		students, err := s.ListActiveStudents(ctx)
		if err != nil {
			t.Fatalf("ListActiveStudents failed: %v", err)
		}
		if len(students) != 1 {
			t.Errorf("Expected 1 student, got %d", len(students))
		}
	})

	t.Run("re-registering clears kicked flag", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		s.UpsertStudent(ctx, "bob", "sid-2")
		sessions, err := s.KickStudentsByName(ctx, "bob")
		if err != nil {
			t.Fatalf("KickStudentsByName failed: %v", err)
		}
		if len(sessions) != 1 || sessions[0] != "sid-2" {
			t.Fatalf("Expected [sid-2], got %v", sessions)
		}

		count, _ := s.CountActiveStudents(ctx)
		if count != 0 {
			t.Errorf("Expected 0 active students after kick, got %d", count)
		}

		st, err := s.UpsertStudent(ctx, "bob", "sid-2")
		if err != nil {
			t.Fatalf("UpsertStudent failed: %v", err)
		}
		if st.IsKicked {
			t.Error("Expected kicked flag to be cleared")
		}
	})

	t.Run("kick unknown name is a no-op", func(t *testing.T) {
		s := open(t)
		sessions, err := s.KickStudentsByName(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("KickStudentsByName failed: %v", err)
		}
		if len(sessions) != 0 {
			t.Errorf("Expected no sessions, got %v", sessions)
		}
	})

	t.Run("student lookups", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		s.UpsertStudent(ctx, "carol", "sid-3")

		if _, err := s.GetStudentBySession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if _, err := s.FindStudentByName(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		st, err := s.FindStudentByName(ctx, "carol")
		if err != nil {
			t.Fatalf("FindStudentByName failed: %v", err)
		}
		if st.SessionID != "sid-3" {
			t.Errorf("Expected sid-3, got %s", st.SessionID)
		}

		if err := s.DeleteStudentBySession(ctx, "sid-3"); err != nil {
			t.Fatalf("DeleteStudentBySession failed: %v", err)
		}
		if _, err := s.GetStudentBySession(ctx, "sid-3"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected student deleted, got %v", err)
		}

		// Deleting twice is fine
		if err := s.DeleteStudentBySession(ctx, "sid-3"); err != nil {
			t.Errorf("Second delete failed: %v", err)
		}
	})

	t.Run("polls round-trip with ordered options", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		poll := &models.Poll{
			Text: "2 + 2 = ?",
			Options: []models.Option{
				{Text: "3"},
				{Text: "4", IsCorrect: true},
				{Text: "5"},
			},
			TimeLimit: 30,
		}
		if err := s.CreatePoll(ctx, poll); err != nil {
			t.Fatalf("CreatePoll failed: %v", err)
		}
		if poll.ID == "" || poll.CreatedAt.IsZero() {
			t.Fatal("Expected ID and creation time to be assigned")
		}
		for _, opt := range poll.Options {
			if opt.ID == "" {
				t.Fatal("Expected option IDs to be assigned")
			}
		}

		got, err := s.GetPoll(ctx, poll.ID)
		if err != nil {
			t.Fatalf("GetPoll failed: %v", err)
		}
		if got.Text != poll.Text || got.TimeLimit != 30 {
			t.Errorf("Unexpected poll %+v", got)
		}
		if len(got.Options) != 3 {
			t.Fatalf("Expected 3 options, got %d", len(got.Options))
		}
		for i := range got.Options {
			if got.Options[i] != poll.Options[i] {
				t.Errorf("Option %d mismatch: %+v vs %+v", i, got.Options[i], poll.Options[i])
			}
		}
		if !got.CreatedAt.Equal(poll.CreatedAt) {
			t.Errorf("CreatedAt mismatch: %v vs %v", got.CreatedAt, poll.CreatedAt)
		}

		if _, err := s.GetPoll(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list polls newest first with limit", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		if _, err := LatestPoll(ctx, s); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound with no polls, got %v", err)
		}

		base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 4; i++ {
			poll := &models.Poll{
				Text:      "Q" + string(rune('1'+i)),
				Options:   []models.Option{{Text: "yes"}},
				TimeLimit: 60,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			if err := s.CreatePoll(ctx, poll); err != nil {
				t.Fatalf("CreatePoll failed: %v", err)
			}
		}

		polls, err := s.ListPolls(ctx, 0)
		if err != nil {
			t.Fatalf("ListPolls failed: %v", err)
		}
		if len(polls) != 4 {
			t.Fatalf("Expected 4 polls, got %d", len(polls))
		}
		for i := 1; i < len(polls); i++ {
			if !polls[i-1].CreatedAt.After(polls[i].CreatedAt) {
				t.Errorf("Polls not strictly descending at %d", i)
			}
		}
		if len(polls[0].Options) != 1 {
			t.Errorf("Expected options to be loaded")
		}

		limited, _ := s.ListPolls(ctx, 2)
		if len(limited) != 2 || limited[0].Text != "Q4" {
			t.Errorf("Unexpected limited list: %+v", limited)
		}

		latest, err := LatestPoll(ctx, s)
		if err != nil || latest.Text != "Q4" {
			t.Errorf("Expected Q4 as latest, got %+v (%v)", latest, err)
		}
	})

	t.Run("save response upserts per student and poll", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		poll := &models.Poll{Text: "Pick", Options: []models.Option{{Text: "A"}, {Text: "B"}}, TimeLimit: 60}
		s.CreatePoll(ctx, poll)
		a, b := poll.Options[0].ID, poll.Options[1].ID

		first := &models.Response{StudentID: "st-1", PollID: poll.ID, SelectedOption: a}
		if err := s.SaveResponse(ctx, first); err != nil {
			t.Fatalf("SaveResponse failed: %v", err)
		}
		second := &models.Response{StudentID: "st-1", PollID: poll.ID, SelectedOption: b, IsCorrect: true}
		if err := s.SaveResponse(ctx, second); err != nil {
			t.Fatalf("SaveResponse failed: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("Expected resubmission to keep the record ID")
		}
		s.SaveResponse(ctx, &models.Response{StudentID: "st-2", PollID: poll.ID, SelectedOption: a})

		count, _ := s.CountResponses(ctx, poll.ID)
		if count != 2 {
			t.Errorf("Expected 2 responses, got %d", count)
		}

		responses, err := s.ListResponses(ctx, poll.ID)
		if err != nil {
			t.Fatalf("ListResponses failed: %v", err)
		}
		for _, r := range responses {
			if r.StudentID == "st-1" && (r.SelectedOption != b || !r.IsCorrect) {
				t.Errorf("Expected overwritten answer, got %+v", r)
			}
		}

		all, _ := s.ListAllResponses(ctx)
		if len(all) != 2 {
			t.Errorf("Expected 2 responses overall, got %d", len(all))
		}
	})

	t.Run("messages are oldest first", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		for i, text := range []string{"first", "second", "third"} {
			msg := &models.Message{Sender: "Teacher", Text: text, SessionID: "sid", CreatedAt: base.Add(time.Duration(i) * time.Second)}
			if err := s.CreateMessage(ctx, msg); err != nil {
				t.Fatalf("CreateMessage failed: %v", err)
			}
			if msg.ID == "" {
				t.Fatal("Expected message ID")
			}
		}

		messages, err := s.ListMessages(ctx)
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(messages) != 3 {
			t.Fatalf("Expected 3 messages, got %d", len(messages))
		}
		if messages[0].Text != "first" || messages[2].Text != "third" {
			t.Errorf("Unexpected order: %+v", messages)
		}
	})
}

func TestRebind(t *testing.T) {
	pg := NewSQLStore(nil, cliparse.DatabasePostgres)
	lite := NewSQLStore(nil, cliparse.DatabaseSQLite)

	query := "SELECT * FROM poll WHERE id = ? AND text = ?"
	if got := pg.rebind(query); got != "SELECT * FROM poll WHERE id = $1 AND text = $2" {
		t.Errorf("Unexpected postgres query: %s", got)
	}
	if got := lite.rebind(query); got != query {
		t.Errorf("SQLite query should be unchanged: %s", got)
	}
}

func TestOpenUnsupportedType(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}
