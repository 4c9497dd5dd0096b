// League Play Tests
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
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-league"
	"go-league/store"
)

func TestMain(m *testing.M) {
	league.SetSilent(true)
	os.Exit(m.Run())
}

// Runner where the bot further down on the initial ladder always wins
type fakeRunner struct {
	strength map[string]int
	fail     map[string]bool
	rename   func(string) string
	played   []string
}

func (*fakeRunner) String() string { return "Fake Runner" }

func (f *fakeRunner) Run(ctx context.Context, mc *league.MatchConfig) (*league.MatchResult, error) {
	blue, orange := mc.Blue.Name, mc.Orange.Name
	f.played = append(f.played, blue+" vs "+orange)
	if f.fail[blue] || f.fail[orange] {
		return nil, league.ErrNoResult
	}

	res := &league.MatchResult{
		Blue:        blue,
		Orange:      orange,
		BlueShots:   4,
		OrangeShots: 4,
	}
	if f.rename != nil {
		res.Blue, res.Orange = f.rename(blue), f.rename(orange)
	}
	if f.strength[blue] > f.strength[orange] {
		res.BlueGoals = 2
	} else {
		res.OrangeGoals = 2
	}
	return res, nil
}

type fixture struct {
	dir    string
	ladder *league.Ladder
	bots   map[string]*league.Bot
	store  *store.Files
	runner *fakeRunner
	now    time.Time
}

func newFixture(t *testing.T, bots []string, size, overlap int) *fixture {
	dir := t.TempDir()
	fs, err := store.OpenFiles(dir)
	require.NoError(t, err)
	l, err := league.MakeLadder(bots, size, overlap)
	require.NoError(t, err)

	f := &fixture{
		dir:    dir,
		ladder: l,
		bots:   make(map[string]*league.Bot),
		store:  fs,
		runner: &fakeRunner{strength: make(map[string]int), fail: make(map[string]bool)},
		now:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, name := range bots {
		f.bots[name] = &league.Bot{
			Name:    name,
			Path:    filepath.Join(dir, "bots", name),
			Updated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		f.runner.strength[name] = i
	}
	return f
}

func (f *fixture) league(s league.RunStrategy) *League {
	return &League{
		Ladder: f.ladder,
		Bots:   f.bots,
		Store:  f.store,
		Runner: f.runner,
		Output: f.output(),
		Opts: Options{
			Strategy: s,
			Maps:     []string{"DFHStadium"},
		},
		Rand: rand.New(rand.NewSource(1)),
		Clock: func() time.Time {
			f.now = f.now.Add(time.Second)
			return f.now
		},
	}
}

func (f *fixture) output() string {
	return filepath.Join(f.dir, "ladder_new.txt")
}

func (f *fixture) newLadder(t *testing.T) string {
	data, err := os.ReadFile(f.output())
	require.NoError(t, err)
	return string(data)
}

func lines(bots ...string) string {
	return strings.Join(bots, "\n") + "\n"
}

func TestRunSingleDivision(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c", "d"}, 4, 1)

	ev, err := f.league(league.EVEN).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ev.Complete())
	assert.Len(t, f.runner.played, 6)
	assert.Equal(t, lines("d", "c", "b", "a"), f.newLadder(t))
	assert.Equal(t, []string{"a", "b", "c", "d"}, f.ladder.Bots, "input ladder was modified")

	require.Len(t, ev.Divisions, 1)
	for _, m := range ev.Divisions[0].Matches() {
		assert.Equal(t, PLAYED, m.State)

		// Every played match is persisted in both stores
		res, err := f.store.Result(context.Background(), 0, m.Blue, m.Orange)
		require.NoError(t, err)
		assert.Equal(t, m.Result, res)
		hist, err := f.store.History(context.Background(),
			f.bots[m.Blue].Key(), f.bots[m.Orange].Key())
		require.NoError(t, err)
		assert.Len(t, hist, 1)
	}
}

func TestRunEven(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefghij", ""), 4, 1)

	ev, err := f.league(league.EVEN).Run(context.Background())
	require.NoError(t, err)

	// The lowest playing division is played first
	require.Len(t, ev.Divisions, 2)
	assert.Equal(t, 2, ev.Divisions[0].Index)
	assert.Equal(t, 0, ev.Divisions[1].Index)
	assert.Equal(t, "i vs j", f.runner.played[0])
	assert.Len(t, f.runner.played, 1+10)

	assert.Equal(t, lines("e", "d", "c", "b", "a", "f", "g", "h", "j", "i"), f.newLadder(t))
}

func TestRunIdempotent(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefghij", ""), 4, 1)

	_, err := f.league(league.ODD).Run(context.Background())
	require.NoError(t, err)
	first := f.newLadder(t)
	require.NotEmpty(t, f.runner.played)

	f.runner.played = nil
	ev, err := f.league(league.ODD).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.runner.played)
	assert.Equal(t, first, f.newLadder(t))
	for _, d := range ev.Divisions {
		for _, m := range d.Matches() {
			assert.Equal(t, CACHED, m.State)
		}
	}
}

func TestRunFailure(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c", "d"}, 4, 1)
	f.runner.fail["b"] = true

	ev, err := f.league(league.EVEN).Run(context.Background())
	assert.True(t, errors.Is(err, league.ErrIncomplete), "unexpected error: %v", err)
	assert.False(t, ev.Complete())
	assert.Len(t, f.runner.played, 6, "remaining matches were not played")
	assert.Len(t, ev.Unresolved(), 3)
	for _, m := range ev.Unresolved() {
		assert.Equal(t, FAILED, m.State)
		assert.True(t, errors.Is(m.Err, league.ErrNoResult))
	}
	_, err = os.Stat(f.output())
	assert.True(t, os.IsNotExist(err), "ladder written for an incomplete event")

	// Only the failed matches are retried
	f.runner.fail = nil
	f.runner.played = nil
	_, err = f.league(league.EVEN).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.runner.played, 3)
	for _, p := range f.runner.played {
		assert.Contains(t, p, "b")
	}
	assert.Equal(t, lines("d", "c", "b", "a"), f.newLadder(t))
}

func TestRunCorrupt(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c", "d"}, 4, 1)
	name := filepath.Join(f.dir, store.ResultDir, store.SessionName(0, "b", "c"))
	require.NoError(t, os.WriteFile(name, []byte("{\"blue\": \"b\","), 0644))

	_, err := f.league(league.EVEN).Run(context.Background())
	require.Error(t, err)
	assert.True(t, league.IsCorrupt(err))
	assert.Contains(t, err.Error(), name)
	_, err = os.Stat(f.output())
	assert.True(t, os.IsNotExist(err))
}

func TestRunStale(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	f := newFixture(t, []string{"a", "b"}, 4, 1)
	ctx := context.Background()
	a, b := f.bots["a"], f.bots["b"]
	for i := 0; i < 2; i++ {
		at := f.now.Add(-time.Duration(i+1) * time.Hour)
		res := &league.MatchResult{Blue: "a", Orange: "b", BlueGoals: 1}
		require.NoError(t, f.store.SaveHistory(ctx, a.Key(), b.Key(), at, res))
	}

	lp := f.league(league.EVEN)
	lp.Opts.StaleThreshold = 2
	ev, err := lp.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.runner.played)
	assert.Equal(t, STALE, ev.Divisions[0].Matches()[0].State)
	assert.Equal(t, lines("a", "b"), f.newLadder(t))

	// Nothing was written for the reused result
	res, err := f.store.Result(ctx, 0, "a", "b")
	require.NoError(t, err)
	assert.Nil(t, res)

	var logged bool
	for _, e := range hook.AllEntries() {
		logged = logged || strings.HasPrefix(e.Message, "Reusing stale result")
	}
	assert.True(t, logged)

	// A new version of a bot has no history
	b.Updated = b.Updated.Add(time.Hour)
	_, err = lp.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a vs b"}, f.runner.played)
	assert.Equal(t, lines("b", "a"), f.newLadder(t))
}

func TestRunRolling(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefgh", ""), 2, 1)

	ev, err := f.league(league.ROLLING).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ev.Divisions, 4)

	// The best bot climbs all the way up through the overlap slots
	assert.Equal(t, lines("h", "b", "a", "d", "c", "f", "e", "g"), f.newLadder(t))
	assert.Equal(t, []string{"e", "f", "h"}, ev.Divisions[1].Participants)
}

func TestRunRollingDeferred(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefgh", ""), 2, 1)
	f.runner.fail["g"] = true

	ev, err := f.league(league.ROLLING).Run(context.Background())
	assert.True(t, errors.Is(err, league.ErrIncomplete))
	assert.Equal(t, []string{"g vs h"}, f.runner.played)
	for _, d := range ev.Divisions[1:] {
		assert.True(t, d.Deferred, "%s division was not deferred", d.Name)
	}
}

func TestRunEvenIndependent(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefghij", ""), 4, 1)
	f.runner.fail["j"] = true

	ev, err := f.league(league.EVEN).Run(context.Background())
	assert.True(t, errors.Is(err, league.ErrIncomplete))
	assert.Len(t, f.runner.played, 1+10)
	assert.True(t, ev.Divisions[1].Complete())
}

func TestRunHalfRobin(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefgh", ""), 4, 1)

	lp := f.league(league.EVEN)
	lp.Opts.HalfRobin = true
	ev, err := lp.Run(context.Background())
	require.NoError(t, err)

	d := ev.Divisions[0]
	require.Len(t, d.Rounds, 2)
	assert.Equal(t, []string{"a", "b", "c"}, d.Rounds[0].Participants)
	assert.Equal(t, []string{"c", "d", "e"}, d.Rounds[1].Participants)
	assert.Len(t, f.runner.played, 6)
	assert.Equal(t, lines("e", "d", "c", "b", "a", "f", "g", "h"), f.newLadder(t))
}

func TestRunHalfRobinClimb(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefgh", ""), 4, 1)
	// c loses every match, so e and d have to pass it
	f.runner.strength["c"] = -1

	lp := f.league(league.EVEN)
	lp.Opts.HalfRobin = true
	_, err := lp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lines("b", "a", "e", "d", "c", "f", "g", "h"), f.newLadder(t))

	// e is now shared and reaches the top in the next event
	next, err := league.ReadLadder(f.output(), 4, 1)
	require.NoError(t, err)
	lp = f.league(league.EVEN)
	lp.Ladder = next
	lp.Opts.HalfRobin = true
	_, err = lp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lines("e", "b", "a", "d", "c", "f", "g", "h"), f.newLadder(t))
}

func TestRunResultNames(t *testing.T) {
	f := newFixture(t, []string{"a", "b"}, 4, 1)
	f.runner.rename = strings.ToUpper

	ev, err := f.league(league.EVEN).Run(context.Background())
	require.NoError(t, err)
	res := ev.Divisions[0].Matches()[0].Result
	assert.Equal(t, "a", res.Blue)
	assert.Equal(t, "b", res.Orange)

	g := newFixture(t, []string{"a", "b"}, 4, 1)
	g.runner.rename = func(name string) string { return name + "x" }
	ev, err = g.league(league.EVEN).Run(context.Background())
	assert.True(t, errors.Is(err, league.ErrIncomplete))
	assert.Equal(t, FAILED, ev.Divisions[0].Matches()[0].State)
}

func TestRunMissingBot(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c"}, 4, 1)
	delete(f.bots, "c")

	ev, err := f.league(league.EVEN).Run(context.Background())
	assert.True(t, errors.Is(err, league.ErrIncomplete))
	assert.Len(t, f.runner.played, 1)
	assert.Len(t, ev.Unresolved(), 2)
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c", "d"}, 4, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.league(league.EVEN).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.runner.played)
}

func TestPlan(t *testing.T) {
	f := newFixture(t, strings.Split("abcdefghij", ""), 4, 1)
	lp := f.league(league.EVEN)
	lp.Runner = nil

	ev, err := lp.Plan(context.Background())
	require.NoError(t, err)
	assert.Len(t, ev.Unresolved(), 11)
	for _, m := range ev.Unresolved() {
		assert.Equal(t, PENDING, m.State)
	}
	ents, err := os.ReadDir(filepath.Join(f.dir, store.ResultDir))
	require.NoError(t, err)
	assert.Empty(t, ents)

	var buf bytes.Buffer
	ev.PrintMatches(&buf, true)
	out := buf.String()
	assert.Contains(t, out, "--- 0 quantum ---")
	assert.Contains(t, out, "i  vs  j")
	assert.Less(t, strings.Index(out, "quantum"), strings.Index(out, "processor"))

	_, err = lp.Run(context.Background())
	assert.Error(t, err)
}

func TestPrintScores(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "c", "d"}, 4, 1)
	ev, err := f.league(league.EVEN).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	ev.PrintScores(&buf)
	assert.Regexp(t, `\s+d\s+3\s+0\s+6\s+6`, buf.String())

	buf.Reset()
	PrintDifferences(&buf, ev.Old, ev.New)
	assert.Contains(t, buf.String(), "^ d (up from 4 to 1)")
	assert.Contains(t, buf.String(), "v a (down from 1 to 4)")
}

// Store that loses every session result
type lossyStore struct {
	*store.Files
}

func (lossyStore) SaveResult(context.Context, int, *league.MatchResult) error {
	return errors.New("disk full")
}

func TestRunHistoryFirst(t *testing.T) {
	f := newFixture(t, []string{"a", "b"}, 4, 1)
	lp := f.league(league.EVEN)
	lp.Store = lossyStore{f.store}

	_, err := lp.Run(context.Background())
	require.Error(t, err)

	// The history entry survives the failed session write
	hist, err := f.store.History(context.Background(), f.bots["a"].Key(), f.bots["b"].Key())
	require.NoError(t, err)
	assert.Len(t, hist, 1)
	res, err := f.store.Result(context.Background(), 0, "a", "b")
	require.NoError(t, err)
	assert.Nil(t, res)
}
