// Common Interfaces and constants
//
// Copyright (c) 2021, 2022, 2024  Philip Kaludercic
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
	"fmt"
	"strings"
	"time"
)

// Strategy deciding what divisions play during an event
type RunStrategy uint8

const (
	EVEN RunStrategy = iota
	ODD
	ROLLING
)

func (s RunStrategy) String() string {
	switch s {
	case EVEN:
		return "even"
	case ODD:
		return "odd"
	case ROLLING:
		return "rolling"
	default:
		panic(fmt.Sprintf("Illegal run strategy: %d", s))
	}
}

// Parse the name of a run strategy (case insensitive)
func ParseRunStrategy(name string) (RunStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "even":
		return EVEN, nil
	case "odd":
		return ODD, nil
	case "rolling":
		return ROLLING, nil
	}
	return 0, Configf("unknown run strategy %q", name)
}

type Team uint8

const (
	BLUE Team = iota
	ORANGE
)

func (t Team) String() string {
	switch t {
	case BLUE:
		return "blue"
	case ORANGE:
		return "orange"
	}
	panic("Illegal team")
}

// A competitor known to the league
type Bot struct {
	Name string
	// Directory containing the bot, empty for reference bots
	Path string
	// Last time the code of the bot was changed
	Updated time.Time
	// Reference bots are provided by the game itself
	Reference bool
}

func (b *Bot) String() string {
	return b.Name
}

// Key identifying this specific revision of the bot
func (b *Bot) Key() VersionKey {
	return MakeVersionKey(b.Name, b.Updated)
}

// A participant of a single match
type Player struct {
	Name       string  `json:"name"`
	Path       string  `json:"path,omitempty"`
	Team       Team    `json:"team"`
	Skill      float64 `json:"skill"`
	Controlled bool    `json:"controlled"`
}

// Everything the match runner needs to know to play a match
type MatchConfig struct {
	Division int    `json:"division"`
	Map      string `json:"map"`
	Blue     Player `json:"blue"`
	Orange   Player `json:"orange"`
}

func (mc *MatchConfig) String() string {
	return fmt.Sprintf("%s vs %s", mc.Blue.Name, mc.Orange.Name)
}

// Runner plays a single match and blocks until it has finished.
//
// If the match did not produce an outcome, Run must return an error
// (usually wrapping ErrNoResult) instead of a partial result.
type Runner interface {
	fmt.Stringer
	Run(context.Context, *MatchConfig) (*MatchResult, error)
}

// HistoryProvider returns all stored results between two specific
// bot versions, most recent first.
type HistoryProvider interface {
	History(ctx context.Context, a, b VersionKey) ([]*MatchResult, error)
}
