// Versioned Match History
//
// Copyright (c) 2024  Philip Kaludercic
//
// This file is part of go-league.
//
// go-league is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-league is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-league. If not, see
// <http://www.gnu.org/licenses/>

package league

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// VersionKey identifies one revision of a bot
type VersionKey string

// Time format used in version keys and history file names.  Colons
// are replaced, so the keys can be used in file names.
const keyTimeFormat = "2006-01-02T15:04:05Z07:00"

func MakeVersionKey(name string, updated time.Time) VersionKey {
	stamp := updated.UTC().Format(keyTimeFormat)
	return VersionKey(name + "-" + strings.ReplaceAll(stamp, ":", "-"))
}

// Order two keys canonically, so that (A, B) and (B, A) refer to the
// same history.
func SortKeys(a, b VersionKey) (VersionKey, VersionKey) {
	if b < a {
		return b, a
	}
	return a, b
}

// MatchHistory holds all results between two bot versions, the most
// recent result first.
type MatchHistory struct {
	Results []*MatchResult
}

func (h *MatchHistory) Empty() bool {
	return h == nil || len(h.Results) == 0
}

// The most recent result, or nil
func (h *MatchHistory) Latest() *MatchResult {
	if h.Empty() {
		return nil
	}
	return h.Results[0]
}

// Number of consecutive most recent results won by the winner of the
// latest result.  A draw has no winner, and therefore ends a streak.
func (h *MatchHistory) StreakLength() int {
	latest := h.Latest()
	if latest == nil {
		return 0
	}
	winner := latest.Winner()
	if winner == "" {
		return 0
	}

	var streak int
	for _, res := range h.Results {
		if res.Winner() != winner {
			break
		}
		streak++
	}
	return streak
}

// Number of wins of both bots among the last N results.  Draws are
// not counted.
func (h *MatchHistory) WinCounts(n int) map[string]int {
	latest := h.Latest()
	if latest == nil {
		return nil
	}

	wins := map[string]int{latest.Blue: 0, latest.Orange: 0}
	for i, res := range h.Results {
		if i >= n {
			break
		}
		if w := res.Winner(); w != "" {
			wins[w]++
		}
	}
	return wins
}

// Load the history between two bots
func LoadHistory(ctx context.Context, a, b *Bot, hp HistoryProvider) (*MatchHistory, error) {
	results, err := hp.History(ctx, a.Key(), b.Key())
	if err != nil {
		return nil, err
	}
	return &MatchHistory{Results: results}, nil
}

// Check if the outcome between the current versions of A and B has
// been settled.  If the same bot has won the last THRESHOLD matches,
// the latest result is returned and can be reused instead of playing
// the match again.  A non-positive threshold disables the check.
func StaleMatchResult(ctx context.Context, a, b *Bot, threshold int, hp HistoryProvider) (*MatchResult, error) {
	if threshold <= 0 {
		return nil, nil
	}

	hist, err := LoadHistory(ctx, a, b, hp)
	if err != nil {
		return nil, err
	}
	if hist.Empty() {
		return nil, nil
	}

	streak := hist.StreakLength()
	log.WithFields(log.Fields{
		"a":      a.Key(),
		"b":      b.Key(),
		"streak": streak,
	}).Debug("Checked match history")
	if streak < threshold {
		return nil, nil
	}
	return hist.Latest(), nil
}
