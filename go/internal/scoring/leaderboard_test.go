package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpitch/scoreroom/go/internal/criteria"
	"github.com/openpitch/scoreroom/go/internal/room"
)

func boardRoom(t *testing.T, teams ...string) room.Room {
	t.Helper()
	r, err := room.New(teams, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func fullBallot(rating int) room.RatingMap {
	return room.RatingMap{
		"problemFit": rating,
		"aiLeverage": rating,
		"creativity": rating,
		"execution":  rating,
		"pitch":      rating,
	}
}

func TestBuildLeaderboard_NoVotes(t *testing.T) {
	table := criteria.Default()
	r := boardRoom(t, "Alpha", "Beta", "Gamma")

	board := BuildLeaderboard(table, r)
	require.Len(t, board, 3)

	// exact ties keep original team order
	for i, e := range board {
		assert.Equal(t, i, e.TeamIndex)
		assert.Equal(t, r.Teams[i], e.TeamName)
		assert.Zero(t, e.Average)
		assert.Zero(t, e.VoteCount)
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, "1st", board[0].Medal)
	assert.Equal(t, "2nd", board[1].Medal)
	assert.Equal(t, "3rd", board[2].Medal)
}

func TestBuildLeaderboard_RanksByAverage(t *testing.T) {
	table := criteria.Default()
	r := boardRoom(t, "Alpha", "Beta", "Gamma", "Delta")
	r.RoundTeams = map[int]int{0: 0, 1: 1, 2: 2}
	r.Votes = map[int]map[string]room.RatingMap{
		0: {"v1": fullBallot(3), "v2": fullBallot(3)},
		1: {"v1": fullBallot(5)},
		2: {"v1": fullBallot(1), "v2": fullBallot(2)},
	}

	board := BuildLeaderboard(table, r)
	require.Len(t, board, 4)

	assert.Equal(t, "Beta", board[0].TeamName)
	assert.InDelta(t, 5.0, board[0].Average, 1e-9)
	assert.Equal(t, 1, board[0].VoteCount)
	assert.Equal(t, "1st", board[0].Medal)

	assert.Equal(t, "Alpha", board[1].TeamName)
	assert.InDelta(t, 3.0, board[1].Average, 1e-9)
	assert.Equal(t, 2, board[1].VoteCount)

	assert.Equal(t, "Gamma", board[2].TeamName)
	assert.InDelta(t, 1.5, board[2].Average, 1e-9)

	assert.Equal(t, "Delta", board[3].TeamName)
	assert.Zero(t, board[3].VoteCount)
	assert.Empty(t, board[3].Medal)
	assert.Equal(t, 4, board[3].Rank)
}

func TestBuildLeaderboard_SameTeamAcrossRounds(t *testing.T) {
	// A team evaluated twice accumulates ballots from both rounds into one
	// running average.
	table := criteria.Default()
	r := boardRoom(t, "Alpha", "Beta")
	r.RoundTeams = map[int]int{0: 0, 1: 0, 2: 1}
	r.Votes = map[int]map[string]room.RatingMap{
		0: {"v1": fullBallot(5)},
		1: {"v1": fullBallot(1)},
		2: {"v1": fullBallot(2)},
	}

	board := BuildLeaderboard(table, r)
	assert.Equal(t, "Alpha", board[0].TeamName)
	assert.Equal(t, 2, board[0].VoteCount)
	assert.InDelta(t, 3.0, board[0].Average, 1e-9)
}

func TestBuildLeaderboard_IgnoresUnassignedRounds(t *testing.T) {
	table := criteria.Default()
	r := boardRoom(t, "Alpha", "Beta")
	r.Votes = map[int]map[string]room.RatingMap{
		0: {"v1": fullBallot(5)},
	}
	// no RoundTeams entry for round 0

	board := BuildLeaderboard(table, r)
	for _, e := range board {
		assert.Zero(t, e.VoteCount)
		assert.Zero(t, e.Average)
	}
}

func TestBuildLeaderboard_Idempotent(t *testing.T) {
	table := criteria.Default()
	r := boardRoom(t, "Alpha", "Beta", "Gamma")
	r.RoundTeams = map[int]int{0: 1, 1: 0}
	r.Votes = map[int]map[string]room.RatingMap{
		0: {"v1": fullBallot(4), "v2": fullBallot(2)},
		1: {"v3": fullBallot(3)},
	}

	first := BuildLeaderboard(table, r)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildLeaderboard(table, r))
	}
}

func TestBuildLeaderboard_EndToEnd(t *testing.T) {
	// One round: Alpha is evaluated, a Beta player files the ballot
	// {5,4,3,5,2} against the default weights. Alpha ends on 4.05.
	table := criteria.Default()
	r := boardRoom(t, "Alpha", "Beta")

	r, err := room.SelectTeam(0, 0)(r)
	require.NoError(t, err)
	r.Votes[0] = map[string]room.RatingMap{
		"beta-player": {
			"problemFit": 5,
			"aiLeverage": 4,
			"creativity": 3,
			"execution":  5,
			"pitch":      2,
		},
	}

	board := BuildLeaderboard(table, r)
	require.Len(t, board, 2)

	assert.Equal(t, "Alpha", board[0].TeamName)
	assert.InDelta(t, 4.05, board[0].Average, 1e-9)
	assert.Equal(t, 1, board[0].VoteCount)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "1st", board[0].Medal)

	assert.Equal(t, "Beta", board[1].TeamName)
	assert.Zero(t, board[1].Average)
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, "2nd", board[1].Medal)
}
