// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/segmentio/encoding/json"

	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/models"
)

// TestTeacher is the teacher identity used by GetTestConfig
const TestTeacher = "Teacher"

// SetupTestStore creates a fresh SQLite store in a temp dir with the full schema.
// The store is closed when the test ends.
func SetupTestStore(t *testing.T) *db.SQLStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "live_poll_test.db")
	url := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	store, err := db.OpenSQL(context.Background(), cliparse.DatabaseSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         5318,
		DatabaseURL:  "file::memory:",
		DatabaseType: cliparse.DatabaseSQLite,
		FrontendURL:  "*",
		TeacherName:  TestTeacher,
	}
}

// CreateTestPoll stores a poll with one option per label. correct is the
// index of the correct option, or -1 for none.
func CreateTestPoll(t *testing.T, store db.Store, text string, correct int, labels ...string) *models.Poll {
	t.Helper()

	poll := &models.Poll{
		Text:      text,
		TimeLimit: models.DefaultTimeLimit,
	}
	for i, label := range labels {
		poll.Options = append(poll.Options, models.Option{Text: label, IsCorrect: i == correct})
	}

	if err := store.CreatePoll(context.Background(), poll); err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// RegisterTestStudent upserts a student on the given session
func RegisterTestStudent(t *testing.T, store db.Store, name, sessionID string) *models.Student {
	t.Helper()

	st, err := store.UpsertStudent(context.Background(), name, sessionID)
	if err != nil {
		t.Fatalf("Failed to register test student: %v", err)
	}
	return st
}

// SubmitTestResponse records an answer for a student, deriving correctness from the poll
func SubmitTestResponse(t *testing.T, store db.Store, poll *models.Poll, studentID, optionID string) *models.Response {
	t.Helper()

	resp := &models.Response{
		StudentID:      studentID,
		PollID:         poll.ID,
		SelectedOption: optionID,
	}
	if opt := poll.Option(optionID); opt != nil {
		resp.IsCorrect = opt.IsCorrect
	}

	if err := store.SaveResponse(context.Background(), resp); err != nil {
		t.Fatalf("Failed to create test response: %v", err)
	}
	return resp
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
