// Round Robin Tournament
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

import "fmt"

// Two bots that are to play against each other
type Pairing struct {
	Blue, Orange string
}

func (p Pairing) String() string {
	return fmt.Sprintf("%s vs %s", p.Blue, p.Orange)
}

// Generate all pairings of a round robin between PARTICIPANTS, using
// the circle method.  Every unordered pair appears exactly once, and
// the order only depends on the order of PARTICIPANTS, as result
// files are named after the pairings.
func Generate(participants []string) []Pairing {
	n := len(participants)
	if n < 2 {
		return nil
	}

	// With an odd number of participants, a ghost (-1) is added
	// and whoever is paired with it sits out that round.
	m := n + n%2
	circle := make([]int, m)
	for i := range circle {
		if i < n {
			circle[i] = i
		} else {
			circle[i] = -1
		}
	}

	pairings := make([]Pairing, 0, n*(n-1)/2)
	for round := 0; round < m-1; round++ {
		for i := 0; i < m/2; i++ {
			a, b := circle[i], circle[m-1-i]
			if a < 0 || b < 0 {
				continue
			}
			// The fixed participant alternates sides
			if i == 0 && round%2 == 1 {
				a, b = b, a
			}
			pairings = append(pairings, Pairing{
				Blue:   participants[a],
				Orange: participants[b],
			})
		}

		// Keep the first element in place and rotate the rest
		// clockwise by one.
		last := circle[m-1]
		copy(circle[2:], circle[1:m-1])
		circle[1] = last
	}
	return pairings
}
