// Half Round Robin
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

import "go-league"

// Smallest round robin that is split in half
const minHalfRobin = 4

// Split a round robin into two smaller overlapping round robins.  The
// top half covers the first ceil(n/2) participants, the bottom half
// the rest plus the last SHARED participants of the top half, with
// SHARED being the overlap size but at least one.  If the round robin
// is too small to be split, OK is false.
func SplitHalf(participants []string, overlap int) (top, bottom []string, ok bool) {
	n := len(participants)
	if n < minHalfRobin {
		return nil, nil, false
	}

	shared := overlap
	if shared < 1 {
		shared = 1
	}
	mid := (n + 1) / 2
	if shared > mid-1 {
		shared = mid - 1
	}
	return participants[:mid], participants[mid-shared:], true
}

// Combine the rankings of both halves into a new order.  The top
// half is taken as ranked, except that before each shared bot, every
// bot of the bottom half that was ranked above it in the bottom half
// is inserted.  The remaining bottom bots follow in their bottom
// order.  A bot that beats a shared bot can thereby climb into the
// top half, and a shared bot that does badly drops below it.
func MergeHalves(top, bottom []league.CombinedScore) []string {
	var (
		order  = make([]string, 0, len(top)+len(bottom))
		inTop  = make(map[string]struct{}, len(top))
		rank   = make(map[string]int, len(bottom))
		placed = make(map[string]struct{}, len(top)+len(bottom))
	)
	for _, s := range top {
		inTop[s.Bot] = struct{}{}
	}
	for i, s := range bottom {
		rank[s.Bot] = i
	}

	place := func(bot string) {
		if _, ok := placed[bot]; !ok {
			placed[bot] = struct{}{}
			order = append(order, bot)
		}
	}
	for _, s := range top {
		if i, ok := rank[s.Bot]; ok {
			for _, b := range bottom[:i] {
				if _, ok := inTop[b.Bot]; !ok {
					place(b.Bot)
				}
			}
		}
		place(s.Bot)
	}
	for _, s := range bottom {
		place(s.Bot)
	}
	return order
}
