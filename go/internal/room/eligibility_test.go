package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanVote(t *testing.T) {
	base := newTestRoom(t, "Alpha", "Beta")
	base, err := SelectTeam(0, 0)(base)
	require.NoError(t, err)
	base, err = StartTimer(testTime)(base)
	require.NoError(t, err)

	voted := base.Clone()
	voted.Votes[0] = map[string]RatingMap{"v1": {"problemFit": 5}}

	closed := base.Clone()
	closed.TimerEnd = nil

	tests := []struct {
		name        string
		room        Room
		voterID     string
		voterTeam   int
		now         time.Time
		expectedErr error
	}{
		{
			name:      "eligible opposing voter",
			room:      base,
			voterID:   "v1",
			voterTeam: 1,
			now:       testTime,
		},
		{
			name:        "timer never started",
			room:        closed,
			voterID:     "v1",
			voterTeam:   1,
			now:         testTime,
			expectedErr: ErrVotingClosed,
		},
		{
			name:        "window expired",
			room:        base,
			voterID:     "v1",
			voterTeam:   1,
			now:         testTime.Add(VotingWindow),
			expectedErr: ErrVotingClosed,
		},
		{
			name:        "own team",
			room:        base,
			voterID:     "v1",
			voterTeam:   0,
			now:         testTime,
			expectedErr: ErrOwnTeam,
		},
		{
			name:        "already voted",
			room:        voted,
			voterID:     "v1",
			voterTeam:   1,
			now:         testTime,
			expectedErr: ErrAlreadyVoted,
		},
		{
			name:      "other voter in round with votes",
			room:      voted,
			voterID:   "v2",
			voterTeam: 1,
			now:       testTime,
		},
		{
			name:        "closed window reported before own team",
			room:        closed,
			voterID:     "v1",
			voterTeam:   0,
			now:         testTime,
			expectedErr: ErrVotingClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanVote(tt.room, tt.voterID, tt.voterTeam, tt.now)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
