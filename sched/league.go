// League Play Scheduler
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

package sched

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-league"
	"go-league/store"
)

// How a pairing was resolved
type State uint8

const (
	// Not resolved yet (only when planning)
	PENDING State = iota
	// A result was already stored for this event
	CACHED
	// The same bot versions have settled the outcome before
	STALE
	// The match was played during this run
	PLAYED
	// The match could not be played
	FAILED
)

func (s State) String() string {
	switch s {
	case PENDING:
		return "pending"
	case CACHED:
		return "cached"
	case STALE:
		return "stale"
	case PLAYED:
		return "played"
	case FAILED:
		return "failed"
	}
	panic("Illegal state")
}

type Match struct {
	Pairing
	State  State
	Result *league.MatchResult
	Err    error
}

func (m *Match) Resolved() bool {
	return m.Result != nil
}

// A round robin between a group of bots
type RoundRobin struct {
	Participants []string
	Matches      []*Match
}

func (rr *RoundRobin) Results() (results []*league.MatchResult) {
	for _, m := range rr.Matches {
		if m.Resolved() {
			results = append(results, m.Result)
		}
	}
	return
}

func (rr *RoundRobin) Rank() []league.CombinedScore {
	return league.RankRoundRobin(rr.Participants, rr.Results())
}

// Everything that happened in one division during an event
type Division struct {
	Index int
	Name  string
	// Ladder slots [From, To) that take part in the round robin
	From, To     int
	Participants []string
	// One round robin, or two when split in half
	Rounds []*RoundRobin
	// Ranking over all results of the division
	Scores []league.CombinedScore
	// New order of the participants, if the division is complete
	Order []string
	// The division was not played, as it depends on a division
	// that could not be completed.
	Deferred bool
}

// All distinct matches of the division
func (d *Division) Matches() []*Match {
	var (
		matches []*Match
		seen    = make(map[*Match]struct{})
	)
	for _, rr := range d.Rounds {
		for _, m := range rr.Matches {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				matches = append(matches, m)
			}
		}
	}
	return matches
}

func (d *Division) Results() (results []*league.MatchResult) {
	for _, m := range d.Matches() {
		if m.Resolved() {
			results = append(results, m.Result)
		}
	}
	return
}

func (d *Division) Complete() bool {
	if d.Deferred {
		return false
	}
	for _, m := range d.Matches() {
		if !m.Resolved() {
			return false
		}
	}
	return true
}

// The outcome of a league play event
type Event struct {
	Strategy league.RunStrategy
	Old, New *league.Ladder
	// Divisions in the order they were played
	Divisions []*Division
}

func (e *Event) Complete() bool {
	for _, d := range e.Divisions {
		if !d.Complete() {
			return false
		}
	}
	return true
}

// Matches that have no result
func (e *Event) Unresolved() (open []*Match) {
	for _, d := range e.Divisions {
		for _, m := range d.Matches() {
			if !m.Resolved() {
				open = append(open, m)
			}
		}
	}
	return
}

type Options struct {
	Strategy league.RunStrategy
	// Split round robins into two overlapping halves
	HalfRobin bool
	// Reuse historic results after this many consecutive wins
	// (disabled if not positive)
	StaleThreshold int
	// Time to wait after each played match
	Pause time.Duration
	// Pool of maps to choose from
	Maps []string
	// Skill of reference bots
	Reference map[string]float64
}

// League runs a league play event.  The schedule is derived from the
// ladder and the stored results alone, so running an interrupted
// event again continues where it stopped.
type League struct {
	Ladder *league.Ladder
	Bots   map[string]*league.Bot
	Store  store.Store
	// Runner used to play matches, may be nil when only planning
	Runner league.Runner
	// File the new ladder is written to, if not empty
	Output string
	Opts   Options

	Rand  *rand.Rand
	Clock func() time.Time
}

// Play all matches of the event and write the new ladder.  If some
// matches could not be played, the returned error wraps
// ErrIncomplete and no ladder is written.
func (l *League) Run(ctx context.Context) (*Event, error) {
	if l.Runner == nil {
		return nil, errors.New("no match runner")
	}
	ev, err := l.event(ctx, true)
	if err != nil {
		return ev, err
	}

	if !ev.Complete() {
		open := ev.Unresolved()
		return ev, errors.Wrapf(league.ErrIncomplete, "%d matches remain", len(open))
	}

	if l.Output != "" {
		err = league.WriteLadder(l.Output, ev.New)
		if err != nil {
			return ev, err
		}
		log.Infof("Saved new ladder as %s", l.Output)
	}
	return ev, nil
}

// Resolve the event without playing any match or writing anything
func (l *League) Plan(ctx context.Context) (*Event, error) {
	return l.event(ctx, false)
}

func overlaps(blocked [][2]int, from, to int) bool {
	for _, b := range blocked {
		if from < b[1] && b[0] < to {
			return true
		}
	}
	return false
}

func (l *League) event(ctx context.Context, play bool) (*Event, error) {
	if err := l.Ladder.Check(); err != nil {
		return nil, err
	}

	var (
		work    = l.Ladder.Copy()
		indices = work.PlayingDivisionIndices(l.Opts.Strategy)
		blocked [][2]int
		ev      = &Event{Strategy: l.Opts.Strategy, Old: l.Ladder}
	)

	// Lower divisions play first, so that a division can take the
	// outcome of the division below into account.
	for k := len(indices) - 1; k >= 0; k-- {
		i := indices[k]
		from, to := work.RoundRobinRange(i)
		d := &Division{
			Index:        i,
			Name:         league.DivisionName(i),
			From:         from,
			To:           to,
			Participants: append([]string(nil), work.Bots[from:to]...),
		}
		ev.Divisions = append(ev.Divisions, d)

		if overlaps(blocked, from, to) {
			log.Warnf("Deferring the %s division, the division below is incomplete", d.Name)
			d.Deferred = true
			blocked = append(blocked, [2]int{from, to})
			continue
		}

		if play {
			log.Infof("Starting round robin for the %s division", d.Name)
		}
		err := l.division(ctx, d, play)
		if err != nil {
			return ev, err
		}

		if !d.Complete() {
			blocked = append(blocked, [2]int{from, to})
			continue
		}
		copy(work.Bots[from:to], d.Order)

		if play {
			log.Infof("The %s division is done", d.Name)
			for _, s := range d.Scores {
				log.Infof("> %s: wins=%d, goal_diff=%d, goals=%d, shots=%d, saves=%d, points=%d",
					s.Bot, s.Wins, s.GoalDiff, s.Goals, s.Shots, s.Saves, s.Points)
			}
		}
	}

	ev.New = work
	return ev, nil
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (l *League) division(ctx context.Context, d *Division, play bool) error {
	groups := [][]string{d.Participants}
	if l.Opts.HalfRobin {
		top, bottom, ok := SplitHalf(d.Participants, l.Ladder.OverlapSize)
		if ok {
			log.Infof("Splitting the %s division into two round robins", d.Name)
			groups = [][]string{top, bottom}
		}
	}

	// Shared bots can meet in both halves, but every pairing is
	// only resolved once.
	seen := make(map[[2]string]*Match)
	for _, g := range groups {
		d.Rounds = append(d.Rounds, &RoundRobin{Participants: g})
	}
	for k := len(d.Rounds) - 1; k >= 0; k-- {
		rr := d.Rounds[k]
		for _, p := range Generate(rr.Participants) {
			key := pairKey(p.Blue, p.Orange)
			m, ok := seen[key]
			if !ok {
				var err error
				m, err = l.resolve(ctx, d.Index, p, play)
				if err != nil {
					return err
				}
				seen[key] = m
			}
			rr.Matches = append(rr.Matches, m)
		}
	}

	d.Scores = league.RankRoundRobin(d.Participants, d.Results())
	if !d.Complete() {
		return nil
	}
	if len(d.Rounds) == 2 {
		d.Order = MergeHalves(d.Rounds[0].Rank(), d.Rounds[1].Rank())
	} else {
		for _, s := range d.Scores {
			d.Order = append(d.Order, s.Bot)
		}
	}
	return nil
}

// Ensure a result reported by a runner belongs to the pairing P, and
// return a copy using the names from the ladder.
func checkResult(res *league.MatchResult, p Pairing) (*league.MatchResult, error) {
	if res == nil {
		return nil, league.ErrNoResult
	}
	c := *res
	switch {
	case strings.EqualFold(c.Blue, p.Blue) && strings.EqualFold(c.Orange, p.Orange):
		c.Blue, c.Orange = p.Blue, p.Orange
	case strings.EqualFold(c.Blue, p.Orange) && strings.EqualFold(c.Orange, p.Blue):
		c.Blue, c.Orange = p.Orange, p.Blue
	default:
		return nil, errors.Errorf("runner reported a result for %s vs %s", c.Blue, c.Orange)
	}
	return &c, c.Validate()
}

func (l *League) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}

// Resolve a single pairing.  Errors are only returned if the event
// has to be aborted, a match that could not be played is reported as
// FAILED instead.
func (l *League) resolve(ctx context.Context, div int, p Pairing, play bool) (*Match, error) {
	m := &Match{Pairing: p}
	entry := log.WithFields(log.Fields{
		"division": league.DivisionName(div),
		"blue":     p.Blue,
		"orange":   p.Orange,
	})

	res, err := l.Store.Result(ctx, div, p.Blue, p.Orange)
	if err != nil {
		return nil, err
	}
	if res != nil {
		entry.Debug("Found existing result")
		m.State, m.Result = CACHED, res
		return m, nil
	}

	blue, bok := l.Bots[p.Blue]
	orange, ook := l.Bots[p.Orange]
	if bok && ook {
		res, err = league.StaleMatchResult(ctx, blue, orange, l.Opts.StaleThreshold, l.Store)
		if err != nil {
			return nil, err
		}
		if res != nil {
			entry.Infof("Reusing stale result %s", res)
			m.State, m.Result = STALE, res
			return m, nil
		}
	}

	if !play {
		return m, nil
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	m.State = FAILED
	for i, ok := range []bool{bok, ook} {
		if !ok {
			name := p.Blue
			if i == 1 {
				name = p.Orange
			}
			m.Err = &league.MatchError{
				Blue:   p.Blue,
				Orange: p.Orange,
				Err:    errors.Errorf("%s was not found in the bot directory", name),
			}
			entry.Error(m.Err)
			return m, nil
		}
	}

	rng := l.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(l.now().UnixNano()))
	}
	mc := league.MakeMatchConfig(div, blue, orange, l.Opts.Reference, l.Opts.Maps, rng)
	entry.Infof("Starting match on %q, waiting for it to finish...", mc.Map)

	res, err = l.Runner.Run(ctx, mc)
	if err == nil {
		res, err = checkResult(res, p)
	}
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		m.Err = &league.MatchError{Blue: p.Blue, Orange: p.Orange, Err: err}
		entry.WithError(err).Error("Match could not be played")
		return m, nil
	}

	// The history is written first, as the session result marks
	// the match as done.  A crash in between only leads to a second
	// history entry when the match is played again.
	if err = l.Store.SaveHistory(ctx, blue.Key(), orange.Key(), l.now(), res); err != nil {
		return nil, err
	}
	if err = l.Store.SaveResult(ctx, div, res); err != nil {
		return nil, err
	}
	m.State, m.Result = PLAYED, res
	entry.Infof("Match finished %d-%d", res.BlueGoals, res.OrangeGoals)

	if l.Opts.Pause > 0 {
		select {
		case <-time.After(l.Opts.Pause):
		case <-ctx.Done():
		}
	}
	return m, nil
}
