// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/live-poll/auth"
	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/models"
)

// SQLStore implements Store on PostgreSQL or SQLite through database/sql.
// Queries are written with ? placeholders and rebound for PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

var _ Store = (*SQLStore)(nil)

// OpenSQL opens, verifies and migrates a PostgreSQL or SQLite database
func OpenSQL(ctx context.Context, dialect, url string) (*SQLStore, error) {
	driver := "postgres"
	if dialect == cliparse.DatabaseSQLite {
		driver = "sqlite"
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// SQLite allows a single writer; serialize everything through one connection
	if dialect == cliparse.DatabaseSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := CreateSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	return NewSQLStore(conn, dialect), nil
}

// NewSQLStore wraps an already migrated connection
func NewSQLStore(conn *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: conn, dialect: dialect}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind turns ? placeholders into $1, $2, ... for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect != cliparse.DatabasePostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Students

const studentColumns = `id, name, session_id, is_kicked, joined_at`

func scanStudent(row interface{ Scan(...any) error }) (*models.Student, error) {
	var st models.Student
	if err := row.Scan(&st.ID, &st.Name, &st.SessionID, &st.IsKicked, &st.JoinedAt); err != nil {
		return nil, err
	}
	st.JoinedAt = st.JoinedAt.UTC()
	return &st, nil
}

func (s *SQLStore) UpsertStudent(ctx context.Context, name, sessionID string) (*models.Student, error) {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO student (id, name, session_id, is_kicked, joined_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE
		SET name = excluded.name, is_kicked = excluded.is_kicked
	`), auth.NewID(), name, sessionID, false, now())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert student: %w", err)
	}

	return s.GetStudentBySession(ctx, sessionID)
}

func (s *SQLStore) GetStudentBySession(ctx context.Context, sessionID string) (*models.Student, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+studentColumns+` FROM student WHERE session_id = ?
	`), sessionID)

	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return st, nil
}

// FindStudentByName prefers a non-kicked record when several share a name
func (s *SQLStore) FindStudentByName(ctx context.Context, name string) (*models.Student, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+studentColumns+` FROM student
		WHERE name = ?
		ORDER BY is_kicked, joined_at, id
		LIMIT 1
	`), name)

	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return st, nil
}

// KickStudentsByName flags every record with the name and returns their session IDs
func (s *SQLStore) KickStudentsByName(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT session_id FROM student WHERE name = ? ORDER BY joined_at, id
	`), name)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}

	var sessions []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		sessions = append(sessions, sid)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(sessions) == 0 {
		return nil, nil
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		UPDATE student SET is_kicked = ? WHERE name = ?
	`), true, name)
	if err != nil {
		return nil, fmt.Errorf("failed to kick student: %w", err)
	}

	return sessions, nil
}

func (s *SQLStore) DeleteStudentBySession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM student WHERE session_id = ?
	`), sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func (s *SQLStore) ListActiveStudents(ctx context.Context) ([]models.Student, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+studentColumns+` FROM student
		WHERE is_kicked = ?
		ORDER BY joined_at, id
	`), false)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

func (s *SQLStore) CountActiveStudents(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM student WHERE is_kicked = ?
	`), false).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// Polls

// CreatePoll assigns IDs and a creation time (unless preset) and stores the poll with its options
func (s *SQLStore) CreatePoll(ctx context.Context, poll *models.Poll) error {
	if poll.ID == "" {
		poll.ID = auth.NewID()
	}
	if poll.CreatedAt.IsZero() {
		poll.CreatedAt = now()
	}
	for i := range poll.Options {
		if poll.Options[i].ID == "" {
			poll.Options[i].ID = auth.NewID()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO poll (id, text, time_limit, created_at)
		VALUES (?, ?, ?, ?)
	`), poll.ID, poll.Text, poll.TimeLimit, poll.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, opt := range poll.Options {
		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO poll_option (id, poll_id, position, text, is_correct)
			VALUES (?, ?, ?, ?, ?)
		`), opt.ID, poll.ID, i, opt.Text, opt.IsCorrect)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	var poll models.Poll
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, text, time_limit, created_at FROM poll WHERE id = ?
	`), id).Scan(&poll.ID, &poll.Text, &poll.TimeLimit, &poll.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query poll: %w", err)
	}
	poll.CreatedAt = poll.CreatedAt.UTC()

	options, err := s.loadOptions(ctx, []string{poll.ID})
	if err != nil {
		return nil, err
	}
	poll.Options = options[poll.ID]
	if poll.Options == nil {
		poll.Options = []models.Option{}
	}
	return &poll, nil
}

// ListPolls returns polls newest first; limit <= 0 means all
func (s *SQLStore) ListPolls(ctx context.Context, limit int) ([]models.Poll, error) {
	query := `SELECT id, text, time_limit, created_at FROM poll ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}

	polls := []models.Poll{}
	for rows.Next() {
		var poll models.Poll
		if err := rows.Scan(&poll.ID, &poll.Text, &poll.TimeLimit, &poll.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		poll.CreatedAt = poll.CreatedAt.UTC()
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(polls) == 0 {
		return polls, nil
	}

	ids := make([]string, len(polls))
	for i := range polls {
		ids[i] = polls[i].ID
	}
	options, err := s.loadOptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range polls {
		polls[i].Options = options[polls[i].ID]
		if polls[i].Options == nil {
			polls[i].Options = []models.Option{}
		}
	}
	return polls, nil
}

// loadOptions returns poll_id -> options in creation order
func (s *SQLStore) loadOptions(ctx context.Context, pollIDs []string) (map[string][]models.Option, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(pollIDs)), ", ")
	args := make([]any, len(pollIDs))
	for i, id := range pollIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT poll_id, id, text, is_correct FROM poll_option
		WHERE poll_id IN (`+placeholders+`)
		ORDER BY poll_id, position
	`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	options := make(map[string][]models.Option, len(pollIDs))
	for rows.Next() {
		var pollID string
		var opt models.Option
		if err := rows.Scan(&pollID, &opt.ID, &opt.Text, &opt.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options[pollID] = append(options[pollID], opt)
	}
	return options, rows.Err()
}

// Responses

// SaveResponse stores the answer, replacing any earlier answer by the same student to the same poll
func (s *SQLStore) SaveResponse(ctx context.Context, resp *models.Response) error {
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = now()
	}
	if resp.ID == "" {
		resp.ID = auth.NewID()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO response (id, student_id, poll_id, selected_option, is_correct, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, poll_id) DO UPDATE
		SET selected_option = excluded.selected_option,
		    is_correct = excluded.is_correct,
		    submitted_at = excluded.submitted_at
	`), resp.ID, resp.StudentID, resp.PollID, resp.SelectedOption, resp.IsCorrect, resp.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}

	// On conflict the existing row keeps its ID
	err = s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id FROM response WHERE student_id = ? AND poll_id = ?
	`), resp.StudentID, resp.PollID).Scan(&resp.ID)
	if err != nil {
		return fmt.Errorf("failed to read back response: %w", err)
	}
	return nil
}

const responseColumns = `id, student_id, poll_id, selected_option, is_correct, submitted_at`

func (s *SQLStore) queryResponses(ctx context.Context, query string, args ...any) ([]models.Response, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(&r.ID, &r.StudentID, &r.PollID, &r.SelectedOption, &r.IsCorrect, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		r.SubmittedAt = r.SubmittedAt.UTC()
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *SQLStore) ListResponses(ctx context.Context, pollID string) ([]models.Response, error) {
	return s.queryResponses(ctx, `
		SELECT `+responseColumns+` FROM response WHERE poll_id = ? ORDER BY submitted_at, id
	`, pollID)
}

func (s *SQLStore) ListAllResponses(ctx context.Context) ([]models.Response, error) {
	return s.queryResponses(ctx, `
		SELECT `+responseColumns+` FROM response ORDER BY submitted_at, id
	`)
}

func (s *SQLStore) CountResponses(ctx context.Context, pollID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM response WHERE poll_id = ?
	`), pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// Chat

func (s *SQLStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = auth.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO message (id, sender, text, session_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), msg.ID, msg.Sender, msg.Text, msg.SessionID, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *SQLStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, text, session_id, created_at FROM message ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.SessionID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
