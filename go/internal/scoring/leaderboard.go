package scoring

import (
	"sort"

	"github.com/openpitch/scoreroom/go/internal/criteria"
	"github.com/openpitch/scoreroom/go/internal/room"
)

// Entry is one team's standing on the leaderboard.
type Entry struct {
	TeamIndex  int     `json:"teamIndex"`
	TeamName   string  `json:"teamName"`
	TotalScore float64 `json:"totalScore"`
	VoteCount  int     `json:"voteCount"`
	Average    float64 `json:"average"`
	Rank       int     `json:"rank"`
	Medal      string  `json:"medal,omitempty"`
}

// medals tags the top three sorted positions. The tag is a function of
// sorted position only: a four-way tie at the top still tags exactly the
// first three entries.
var medals = [...]string{"1st", "2nd", "3rd"}

// BuildLeaderboard folds every round's ballots, keyed by the team that was
// evaluated in that round, into per-team running averages and ranks them
// descending by average. Rounds with no team assignment contribute nothing.
// The sort is stable, so exact ties keep original team order.
func BuildLeaderboard(table criteria.Table, r room.Room) []Entry {
	entries := make([]Entry, len(r.Teams))
	for i, name := range r.Teams {
		entries[i] = Entry{TeamIndex: i, TeamName: name}
	}

	for _, round := range sortedRounds(r.Votes) {
		team, ok := r.RoundTeams[round]
		if !ok || team < 0 || team >= len(entries) {
			continue
		}
		ballots := r.Votes[round]
		for _, voter := range sortedVoters(ballots) {
			entries[team].TotalScore += WeightedScore(table, ballots[voter])
			entries[team].VoteCount++
		}
	}

	for i := range entries {
		if entries[i].VoteCount > 0 {
			entries[i].Average = entries[i].TotalScore / float64(entries[i].VoteCount)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Average > entries[j].Average
	})

	for i := range entries {
		entries[i].Rank = i + 1
		if i < len(medals) {
			entries[i].Medal = medals[i]
		}
	}
	return entries
}

func sortedRounds(votes map[int]map[string]room.RatingMap) []int {
	rounds := make([]int, 0, len(votes))
	for round := range votes {
		rounds = append(rounds, round)
	}
	sort.Ints(rounds)
	return rounds
}
