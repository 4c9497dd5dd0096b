// Match results
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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// The final statistics of a single match.  Results are never
// modified after they have been recorded.
type MatchResult struct {
	Blue         string `json:"blue"`
	Orange       string `json:"orange"`
	BlueGoals    int    `json:"blue_goals"`
	OrangeGoals  int    `json:"orange_goals"`
	BlueShots    int    `json:"blue_shots"`
	OrangeShots  int    `json:"orange_shots"`
	BlueSaves    int    `json:"blue_saves"`
	OrangeSaves  int    `json:"orange_saves"`
	BluePoints   int    `json:"blue_points"`
	OrangePoints int    `json:"orange_points"`
}

func (r *MatchResult) String() string {
	return fmt.Sprintf("%s %d-%d %s", r.Blue, r.BlueGoals, r.OrangeGoals, r.Orange)
}

// A match with equal goals has neither a winner nor a loser
func (r *MatchResult) Draw() bool {
	return r.BlueGoals == r.OrangeGoals
}

// Name of the bot with strictly more goals, or "" on a draw
func (r *MatchResult) Winner() string {
	switch {
	case r.BlueGoals > r.OrangeGoals:
		return r.Blue
	case r.OrangeGoals > r.BlueGoals:
		return r.Orange
	}
	return ""
}

// Name of the bot with strictly fewer goals, or "" on a draw
func (r *MatchResult) Loser() string {
	switch {
	case r.BlueGoals > r.OrangeGoals:
		return r.Orange
	case r.OrangeGoals > r.BlueGoals:
		return r.Blue
	}
	return ""
}

// Check if BOT took part in the match
func (r *MatchResult) Involves(bot string) bool {
	return r.Blue == bot || r.Orange == bot
}

// Check if the result is between A and B, in any order
func (r *MatchResult) Between(a, b string) bool {
	return (r.Blue == a && r.Orange == b) || (r.Blue == b && r.Orange == a)
}

func (r *MatchResult) Validate() error {
	switch {
	case strings.TrimSpace(r.Blue) == "":
		return errors.New("missing blue bot")
	case strings.TrimSpace(r.Orange) == "":
		return errors.New("missing orange bot")
	case r.Blue == r.Orange:
		return errors.Errorf("%s cannot play against itself", r.Blue)
	}
	for _, v := range []int{
		r.BlueGoals, r.OrangeGoals,
		r.BlueShots, r.OrangeShots,
		r.BlueSaves, r.OrangeSaves,
	} {
		if v < 0 {
			return errors.Errorf("negative statistic in %s", r)
		}
	}
	return nil
}

// Parse and validate a result
func ReadResult(r io.Reader) (*MatchResult, error) {
	var res MatchResult
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&res); err != nil {
		return nil, errors.Wrap(err, "malformed result")
	}
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, errors.New("malformed result: trailing data")
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// Serialise a result into a writer
func (r *MatchResult) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(r)
}
