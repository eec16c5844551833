// Package scoring turns raw ballots into per-criterion averages, weighted
// scores, and the cross-round leaderboard. Everything here is a pure
// function of its inputs: no hidden state, deterministic output, stable
// accumulation order (criteria in table order, voters in sorted key order).
package scoring

import (
	"sort"

	"github.com/openpitch/scoreroom/go/internal/criteria"
	"github.com/openpitch/scoreroom/go/internal/room"
)

// WeightedScore collapses one ballot into a single score:
// Σ weight * rating over the criteria table. A missing criterion
// contributes 0; complete ballots are enforced upstream, this is only a
// guard against malformed stored data.
func WeightedScore(table criteria.Table, ratings room.RatingMap) float64 {
	score := 0.0
	for _, c := range table {
		score += c.Weight * float64(ratings[c.Key])
	}
	return score
}

// CriterionAverages computes the per-criterion mean over a round's ballots.
// An empty collection yields 0 for every criterion.
func CriterionAverages(table criteria.Table, ballots map[string]room.RatingMap) map[string]float64 {
	avgs := make(map[string]float64, len(table))
	if len(ballots) == 0 {
		for _, c := range table {
			avgs[c.Key] = 0
		}
		return avgs
	}

	voters := sortedVoters(ballots)
	for _, c := range table {
		sum := 0.0
		for _, voter := range voters {
			sum += float64(ballots[voter][c.Key])
		}
		avgs[c.Key] = sum / float64(len(ballots))
	}
	return avgs
}

func sortedVoters(ballots map[string]room.RatingMap) []string {
	voters := make([]string, 0, len(ballots))
	for voter := range ballots {
		voters = append(voters, voter)
	}
	sort.Strings(voters)
	return voters
}
