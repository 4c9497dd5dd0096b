// Match Result Storage
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

package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"go-league"
)

// Returned when saving to a store that was opened for reading only
var ErrReadOnly = errors.New("store is read-only")

// Store persists match results.  Session results are addressed by a
// division and a pairing, and are used to resume an interrupted
// event.  History results are addressed by two bot versions, and are
// used to detect stale rematches.
type Store interface {
	league.HistoryProvider

	// Look up the result of the pairing of BLUE and ORANGE in
	// division DIV, in either orientation.  If no result has been
	// stored, nil is returned without an error.
	Result(ctx context.Context, div int, blue, orange string) (*league.MatchResult, error)
	// Record the result of a match in division DIV.  A result can
	// only be stored once per division and pairing.
	SaveResult(ctx context.Context, div int, res *league.MatchResult) error
	// Record a result between the bot versions A and B, that was
	// played at AT.
	SaveHistory(ctx context.Context, a, b league.VersionKey, at time.Time, res *league.MatchResult) error

	Close() error
}

// Empty is a read-only store without any results.  It stands in for
// a store that has not been created yet.
type Empty struct{}

func (Empty) String() string { return "Empty Store" }

func (Empty) Result(context.Context, int, string, string) (*league.MatchResult, error) {
	return nil, nil
}

func (Empty) SaveResult(context.Context, int, *league.MatchResult) error {
	return ErrReadOnly
}

func (Empty) SaveHistory(context.Context, league.VersionKey, league.VersionKey, time.Time, *league.MatchResult) error {
	return ErrReadOnly
}

func (Empty) History(context.Context, league.VersionKey, league.VersionKey) ([]*league.MatchResult, error) {
	return nil, nil
}

func (Empty) Close() error { return nil }

var _ Store = Empty{}

// Time format of history entries.  All stamps are in UTC and have a
// fixed width, so that they sort lexicographically.
const stampFormat = "2006-01-02T15-04-05.000000000Z"

func Stamp(t time.Time) string {
	return t.UTC().Format(stampFormat)
}

// Escape a name for use in a file name.  Underscores are escaped as
// well, so that the "_vs_" separator is unambiguous.
func escape(name string) string {
	return strings.ReplaceAll(url.PathEscape(name), "_", "%5F")
}

// Name of the session result file for a pairing in division DIV
func SessionName(div int, blue, orange string) string {
	return league.DivisionName(div) + "_" + escape(blue) + "_vs_" + escape(orange) + ".json"
}

// Common prefix of all history entries between two bot versions
func HistoryPrefix(a, b league.VersionKey) string {
	a, b = league.SortKeys(a, b)
	return escape(string(a)) + "_vs_" + escape(string(b)) + "_at_"
}

// Name of a history entry between two bot versions played at AT
func HistoryName(a, b league.VersionKey, at time.Time) string {
	return HistoryPrefix(a, b) + Stamp(at) + ".json"
}
