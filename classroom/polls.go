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
	"github.com/danielhkuo/live-poll/models"
)

var ErrInvalidPoll = errors.New("invalid poll")

// Polls manages the poll lifecycle: creation, answers and live tallies
type Polls struct {
	store db.Store
}

func NewPolls(store db.Store) *Polls {
	return &Polls{store: store}
}

// Create validates and stores a new poll. A poll may be created at any time,
// whether or not everyone answered the previous one.
func (p *Polls) Create(ctx context.Context, req models.CreatePollRequest) (*models.Poll, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidPoll)
	}
	if len(req.Options) == 0 {
		return nil, fmt.Errorf("%w: at least one option is required", ErrInvalidPoll)
	}

	options := make([]models.Option, len(req.Options))
	for i, in := range req.Options {
		optText := strings.TrimSpace(in.Text)
		if optText == "" {
			return nil, fmt.Errorf("%w: option %d has no text", ErrInvalidPoll, i+1)
		}
		options[i] = models.Option{Text: optText, IsCorrect: in.IsCorrect}
	}

	timeLimit := req.TimeLimit
	if timeLimit <= 0 {
		timeLimit = models.DefaultTimeLimit
	}

	poll := &models.Poll{
		Text:      text,
		Options:   options,
		TimeLimit: timeLimit,
	}
	if err := p.store.CreatePoll(ctx, poll); err != nil {
		return nil, err
	}

	slog.Info("poll created", "poll_id", poll.ID, "options", len(poll.Options), "time_limit", poll.TimeLimit)
	return poll, nil
}

// Submit records the answer of the student on sessionID and returns the new tally.
// Unknown sessions, polls and options are ignored: the result is nil with no error.
func (p *Polls) Submit(ctx context.Context, sessionID, pollID, optionID string) (*models.PollResults, error) {
	student, err := p.store.GetStudentBySession(ctx, sessionID)
	if errors.Is(err, db.ErrNotFound) {
		slog.Debug("answer from unregistered session ignored", "session_id", sessionID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	poll, err := p.store.GetPoll(ctx, pollID)
	if errors.Is(err, db.ErrNotFound) {
		slog.Debug("answer for unknown poll ignored", "poll_id", pollID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	option := poll.Option(optionID)
	if option == nil {
		slog.Debug("answer with unknown option ignored", "poll_id", pollID, "option_id", optionID)
		return nil, nil
	}

	resp := &models.Response{
		StudentID:      student.ID,
		PollID:         poll.ID,
		SelectedOption: option.ID,
		IsCorrect:      option.IsCorrect,
	}
	if err := p.store.SaveResponse(ctx, resp); err != nil {
		return nil, err
	}
	slog.Info("answer recorded", "poll_id", poll.ID, "student_id", student.ID, "correct", resp.IsCorrect)

	return p.Results(ctx, poll)
}

// Results recomputes the live tally of poll from the store
func (p *Polls) Results(ctx context.Context, poll *models.Poll) (*models.PollResults, error) {
	responses, err := p.store.ListResponses(ctx, poll.ID)
	if err != nil {
		return nil, err
	}

	canAskNew, err := p.CanAskNew(ctx)
	if err != nil {
		return nil, err
	}

	return &models.PollResults{
		PollID:    poll.ID,
		Answers:   Counts(Tally(*poll, responses)),
		CanAskNew: canAskNew,
	}, nil
}

// CanAskNew reports whether every current student answered the latest poll.
// It is true when no poll exists yet.
func (p *Polls) CanAskNew(ctx context.Context) (bool, error) {
	latest, err := db.LatestPoll(ctx, p.store)
	if errors.Is(err, db.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	answered, err := p.store.CountResponses(ctx, latest.ID)
	if err != nil {
		return false, err
	}
	students, err := p.store.CountActiveStudents(ctx)
	if err != nil {
		return false, err
	}
	return answered >= students, nil
}
