// Round Robin Scores
//
// Copyright (c) 2022, 2024  Philip Kaludercic
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

import "sort"

// Aggregated performance of a bot during one round robin
type CombinedScore struct {
	Bot      string
	Wins     int
	Losses   int
	GoalDiff int
	Goals    int
	Shots    int
	Saves    int
	Points   int
}

// Sum up all results BOT was involved in
func CalcScore(bot string, results []*MatchResult) CombinedScore {
	score := CombinedScore{Bot: bot}
	for _, res := range results {
		var (
			goals, against, shots, saves, points int
		)
		switch bot {
		case res.Blue:
			goals, against = res.BlueGoals, res.OrangeGoals
			shots, saves, points = res.BlueShots, res.BlueSaves, res.BluePoints
		case res.Orange:
			goals, against = res.OrangeGoals, res.BlueGoals
			shots, saves, points = res.OrangeShots, res.OrangeSaves, res.OrangePoints
		default:
			continue
		}

		switch bot {
		case res.Winner():
			score.Wins++
		case res.Loser():
			score.Losses++
		}
		score.GoalDiff += goals - against
		score.Goals += goals
		score.Shots += shots
		score.Saves += saves
		score.Points += points
	}
	return score
}

// Check if A performed strictly better than B.  The statistics are
// compared in the order wins, goal difference, goals, shots, saves
// and points.
func (a CombinedScore) Better(b CombinedScore) bool {
	for _, d := range [...]int{
		a.Wins - b.Wins,
		a.GoalDiff - b.GoalDiff,
		a.Goals - b.Goals,
		a.Shots - b.Shots,
		a.Saves - b.Saves,
		a.Points - b.Points,
	} {
		if d != 0 {
			return d > 0
		}
	}
	return false
}

// Rank the PARTICIPANTS of a round robin, best first.  Bots with
// identical statistics keep their relative order from PARTICIPANTS,
// that is their previous ladder order.
func RankRoundRobin(participants []string, results []*MatchResult) []CombinedScore {
	scores := make([]CombinedScore, len(participants))
	for i, bot := range participants {
		scores[i] = CalcScore(bot, results)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Better(scores[j])
	})
	return scores
}
