// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classroom

import "github.com/danielhkuo/live-poll/models"

// Tally counts the responses for each option of poll, in option order.
// Responses belonging to another poll or naming an unknown option are ignored.
func Tally(poll models.Poll, responses []models.Response) []models.OptionTally {
	counts := make(map[string]int, len(poll.Options))
	for _, opt := range poll.Options {
		counts[opt.ID] = 0
	}

	total := 0
	for _, r := range responses {
		if r.PollID != poll.ID {
			continue
		}
		if _, ok := counts[r.SelectedOption]; !ok {
			continue
		}
		counts[r.SelectedOption]++
		total++
	}

	tallies := make([]models.OptionTally, len(poll.Options))
	for i, opt := range poll.Options {
		tallies[i] = models.OptionTally{
			ID:         opt.ID,
			Text:       opt.Text,
			IsCorrect:  opt.IsCorrect,
			Count:      counts[opt.ID],
			Percentage: Percentage(counts[opt.ID], total),
		}
	}
	return tallies
}

// Percentage returns count/total as a whole percent, halves rounded up.
// Integer arithmetic keeps exact halves (e.g. 1/8 = 12.5) from drifting.
func Percentage(count, total int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	return (200*count + total) / (2 * total)
}

// Counts projects tallies to option_id -> count
func Counts(tallies []models.OptionTally) map[string]int {
	out := make(map[string]int, len(tallies))
	for _, t := range tallies {
		out[t.ID] = t.Count
	}
	return out
}
