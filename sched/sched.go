// Event Reports
//
// Copyright (c) 2022, 2023, 2024  Philip Kaludercic
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
	"fmt"
	"io"

	"go-league"
)

// Divisions are played from the bottom up, but listed top down
func (e *Event) listed() []*Division {
	divs := make([]*Division, 0, len(e.Divisions))
	for i := len(e.Divisions) - 1; i >= 0; i-- {
		divs = append(divs, e.Divisions[i])
	}
	return divs
}

func (e *Event) PrintMatches(W io.Writer, results bool) {
	fmt.Fprintf(W, "Matches to play (%s):\n", e.Strategy)
	for _, d := range e.listed() {
		fmt.Fprintf(W, "\n--- %d %s ---\n", d.Index, d.Name)
		if d.Deferred {
			fmt.Fprintln(W, "(waits for the division below)")
			continue
		}
		for _, m := range d.Matches() {
			if results && m.Resolved() {
				r := m.Result
				fmt.Fprintf(W, "%14s %d vs %-2d %s\n", r.Blue, r.BlueGoals, r.OrangeGoals, r.Orange)
			} else {
				fmt.Fprintf(W, "%14s  vs  %s\n", m.Blue, m.Orange)
			}
		}
	}
}

func (e *Event) PrintScores(W io.Writer) {
	fmt.Fprintln(W, "Scores:")
	for _, d := range e.listed() {
		fmt.Fprintf(W, "\n--- %d %s ---\n", d.Index, d.Name)
		if d.Deferred {
			fmt.Fprintln(W, "(waits for the division below)")
			continue
		}
		fmt.Fprintf(W, "%14s  %4s %4s %4s %5s %5s %5s %6s\n",
			"", "Win", "Loss", "GD", "Goals", "Shots", "Saves", "Points")
		for _, s := range d.Scores {
			fmt.Fprintf(W, "%14s  %4d %4d %4d %5d %5d %5d %6d\n",
				s.Bot, s.Wins, s.Losses, s.GoalDiff, s.Goals, s.Shots, s.Saves, s.Points)
		}
		if !d.Complete() {
			fmt.Fprintln(W, "(incomplete)")
		}
	}
}

// Print how the ladder changed from PREV to NEXT
func PrintDifferences(W io.Writer, prev, next *league.Ladder) {
	added, up, down := league.Differences(prev, next)
	fmt.Fprintln(W, "Differences:")
	for _, b := range added {
		fmt.Fprintf(W, "  + %s (new)\n", b)
	}
	for _, b := range up {
		fmt.Fprintf(W, "  ^ %s (up from %d to %d)\n", b, prev.Rank(b)+1, next.Rank(b)+1)
	}
	for _, b := range down {
		fmt.Fprintf(W, "  v %s (down from %d to %d)\n", b, prev.Rank(b)+1, next.Rank(b)+1)
	}
	if len(added)+len(up)+len(down) == 0 {
		fmt.Fprintln(W, "  (none)")
	}
}
