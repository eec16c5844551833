package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpitch/scoreroom/go/internal/criteria"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRoom(t *testing.T, teams ...string) Room {
	t.Helper()
	r, err := New(teams, testTime)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		teams       []string
		expectedErr error
	}{
		{name: "two teams", teams: []string{"Alpha", "Beta"}},
		{name: "many teams", teams: []string{"A", "B", "C", "D"}},
		{name: "one team", teams: []string{"Alpha"}, expectedErr: ErrTooFewTeams},
		{name: "no teams", teams: nil, expectedErr: ErrTooFewTeams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.teams, testTime)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.teams, r.Teams)
			assert.Equal(t, 0, r.CurrentRound)
			assert.Nil(t, r.CurrentTeam)
			assert.Nil(t, r.TimerEnd)
			assert.Empty(t, r.RoundTeams)
			assert.Empty(t, r.Votes)
			assert.Equal(t, testTime, r.CreatedAt)
		})
	}
}

func TestSelectTeam(t *testing.T) {
	r := newTestRoom(t, "Alpha", "Beta", "Gamma")

	next, err := SelectTeam(0, 2)(r)
	require.NoError(t, err)
	require.NotNil(t, next.CurrentTeam)
	assert.Equal(t, 2, *next.CurrentTeam)
	assert.Equal(t, map[int]int{0: 2}, next.RoundTeams)

	// input untouched
	assert.Nil(t, r.CurrentTeam)
	assert.Empty(t, r.RoundTeams)

	_, err = SelectTeam(0, 3)(r)
	assert.ErrorIs(t, err, ErrUnknownTeam)

	_, err = SelectTeam(0, -1)(r)
	assert.ErrorIs(t, err, ErrUnknownTeam)

	_, err = SelectTeam(-1, 0)(r)
	assert.ErrorIs(t, err, ErrUnknownRound)
}

func TestSelectTeam_ReassignSameRound(t *testing.T) {
	// Changing the team for the round that is still current is the one
	// legal path to rewrite a history entry.
	r := newTestRoom(t, "Alpha", "Beta")

	r, err := SelectTeam(0, 0)(r)
	require.NoError(t, err)
	r, err = SelectTeam(0, 1)(r)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{0: 1}, r.RoundTeams)
}

func TestStartTimer(t *testing.T) {
	r := newTestRoom(t, "Alpha", "Beta")

	_, err := StartTimer(testTime)(r)
	assert.ErrorIs(t, err, ErrNoTeamSelected)

	r, err = SelectTeam(0, 0)(r)
	require.NoError(t, err)

	next, err := StartTimer(testTime)(r)
	require.NoError(t, err)
	require.NotNil(t, next.TimerEnd)
	assert.Equal(t, testTime.Add(VotingWindow), *next.TimerEnd)
}

func TestStopTimer_Idempotent(t *testing.T) {
	r := newTestRoom(t, "Alpha", "Beta")
	r, err := SelectTeam(0, 0)(r)
	require.NoError(t, err)
	r, err = StartTimer(testTime)(r)
	require.NoError(t, err)

	r, err = StopTimer()(r)
	require.NoError(t, err)
	assert.Nil(t, r.TimerEnd)

	r, err = StopTimer()(r)
	require.NoError(t, err)
	assert.Nil(t, r.TimerEnd)
}

func TestAdvanceRound(t *testing.T) {
	r := newTestRoom(t, "Alpha", "Beta")
	r, err := SelectTeam(0, 1)(r)
	require.NoError(t, err)
	r, err = StartTimer(testTime)(r)
	require.NoError(t, err)

	r, err = AdvanceRound()(r)
	require.NoError(t, err)
	assert.Equal(t, 1, r.CurrentRound)
	assert.Nil(t, r.CurrentTeam)
	assert.Nil(t, r.TimerEnd)

	// history survives the advance
	team, ok := r.TeamForRound(0)
	require.True(t, ok)
	assert.Equal(t, 1, team)
}

func TestRetreatRound_FloorsAtZero(t *testing.T) {
	r := newTestRoom(t, "Alpha", "Beta")

	for i := 0; i < 3; i++ {
		var err error
		r, err = RetreatRound()(r)
		require.NoError(t, err)
		assert.Equal(t, 0, r.CurrentRound)
	}

	r, err := AdvanceRound()(r)
	require.NoError(t, err)
	r, err = AdvanceRound()(r)
	require.NoError(t, err)
	r, err = RetreatRound()(r)
	require.NoError(t, err)
	assert.Equal(t, 1, r.CurrentRound)
}

func TestVotingOpen(t *testing.T) {
	r := newTestRoom(t, "Alpha", "Beta")
	assert.False(t, r.VotingOpen(testTime))

	end := testTime.Add(time.Minute)
	r.TimerEnd = &end
	assert.True(t, r.VotingOpen(testTime))
	assert.False(t, r.VotingOpen(end), "deadline itself is closed")
	assert.False(t, r.VotingOpen(end.Add(time.Second)))
}

func TestRatingMapComplete(t *testing.T) {
	table := criteria.Default()

	tests := []struct {
		name     string
		ratings  RatingMap
		complete bool
	}{
		{
			name: "all criteria rated",
			ratings: RatingMap{
				"problemFit": 5, "aiLeverage": 4, "creativity": 3,
				"execution": 5, "pitch": 2,
			},
			complete: true,
		},
		{
			name: "missing criterion",
			ratings: RatingMap{
				"problemFit": 5, "aiLeverage": 4, "creativity": 3,
				"execution": 5,
			},
			complete: false,
		},
		{
			name: "rating out of range",
			ratings: RatingMap{
				"problemFit": 6, "aiLeverage": 4, "creativity": 3,
				"execution": 5, "pitch": 2,
			},
			complete: false,
		},
		{
			name: "rating below minimum",
			ratings: RatingMap{
				"problemFit": 0, "aiLeverage": 4, "creativity": 3,
				"execution": 5, "pitch": 2,
			},
			complete: false,
		},
		{name: "empty", ratings: RatingMap{}, complete: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.complete, tt.ratings.Complete(table))
		})
	}
}

func TestClone_Isolated(t *testing.T) {
	r := newTestRoom(t, "Alpha", "Beta")
	r, err := SelectTeam(0, 0)(r)
	require.NoError(t, err)
	r.Votes[0] = map[string]RatingMap{"v1": {"problemFit": 5}}

	clone := r.Clone()
	clone.Teams[0] = "Changed"
	clone.RoundTeams[5] = 1
	clone.Votes[0]["v1"]["problemFit"] = 1
	*clone.CurrentTeam = 1

	assert.Equal(t, "Alpha", r.Teams[0])
	assert.NotContains(t, r.RoundTeams, 5)
	assert.Equal(t, 5, r.Votes[0]["v1"]["problemFit"])
	assert.Equal(t, 0, *r.CurrentTeam)
}
