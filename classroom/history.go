// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classroom

import (
	"context"

	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/models"
)

// RecentPollLimit is how many polls the poll-history event returns
const RecentPollLimit = 10

// History rebuilds tallies of past polls
type History struct {
	store db.Store
}

func NewHistory(store db.Store) *History {
	return &History{store: store}
}

// All returns every poll, newest first, with per-option counts and percentages
func (h *History) All(ctx context.Context) ([]models.PollHistory, error) {
	polls, err := h.store.ListPolls(ctx, 0)
	if err != nil {
		return nil, err
	}
	responses, err := h.store.ListAllResponses(ctx)
	if err != nil {
		return nil, err
	}

	byPoll := make(map[string][]models.Response)
	for _, r := range responses {
		byPoll[r.PollID] = append(byPoll[r.PollID], r)
	}

	history := make([]models.PollHistory, len(polls))
	for i, poll := range polls {
		history[i] = models.PollHistory{
			ID:        poll.ID,
			Question:  poll.Text,
			Options:   Tally(poll, byPoll[poll.ID]),
			CreatedAt: poll.CreatedAt,
		}
	}
	return history, nil
}

// Recent returns the limit newest polls with their option_id -> count results
func (h *History) Recent(ctx context.Context, limit int) ([]models.PollSnapshot, error) {
	polls, err := h.store.ListPolls(ctx, limit)
	if err != nil {
		return nil, err
	}

	snapshots := make([]models.PollSnapshot, len(polls))
	for i, poll := range polls {
		responses, err := h.store.ListResponses(ctx, poll.ID)
		if err != nil {
			return nil, err
		}
		snapshots[i] = models.PollSnapshot{
			Poll:    poll,
			Results: Counts(Tally(poll, responses)),
		}
	}
	return snapshots, nil
}
