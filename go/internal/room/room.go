// Package room holds the authoritative state model for one scoring session
// and the only legal transitions on it. A Room is mutated exclusively
// through transitions applied by a store's atomic read-modify-write
// primitive, plus voter-keyed blind vote writes.
package room

import (
	"time"

	"github.com/openpitch/scoreroom/go/internal/criteria"
)

// RatingMap maps criterion key to an integer rating in [1,5].
type RatingMap map[string]int

// MinRating and MaxRating bound a single criterion rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Complete reports whether the map carries an in-range rating for every
// criterion in the table. Partial ballots are never persisted.
func (m RatingMap) Complete(table criteria.Table) bool {
	for _, c := range table {
		v, ok := m[c.Key]
		if !ok || v < MinRating || v > MaxRating {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m RatingMap) Clone() RatingMap {
	if m == nil {
		return nil
	}
	out := make(RatingMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Room is the shared record for one scoring session.
//
// CurrentTeam and TimerEnd are pointers because "absent" is meaningful:
// no team selected yet, timer not running. RoundTeams records which team
// was evaluated in each round that ever had one assigned; historical rounds
// read from it, never from CurrentTeam.
type Room struct {
	Teams        []string                     `json:"teams"`
	CurrentRound int                          `json:"currentRound"`
	CurrentTeam  *int                         `json:"currentTeam,omitempty"`
	TimerEnd     *time.Time                   `json:"timerEnd,omitempty"`
	RoundTeams   map[int]int                  `json:"roundTeams"`
	Votes        map[int]map[string]RatingMap `json:"votes"`
	CreatedAt    time.Time                    `json:"createdAt"`
}

// VotingWindow is how long a voting window stays open once started.
const VotingWindow = 180 * time.Second

// New builds a freshly created room: round 0, no team, no timer, empty
// history and vote log. The shared store assigns the room its code.
func New(teams []string, now time.Time) (Room, error) {
	if len(teams) < 2 {
		return Room{}, ErrTooFewTeams
	}
	roster := make([]string, len(teams))
	copy(roster, teams)
	return Room{
		Teams:      roster,
		RoundTeams: make(map[int]int),
		Votes:      make(map[int]map[string]RatingMap),
		CreatedAt:  now,
	}, nil
}

// Clone returns a deep copy of the room. Stores hand out clones so no
// caller can mutate shared state behind the transactional primitive.
func (r Room) Clone() Room {
	out := r

	out.Teams = make([]string, len(r.Teams))
	copy(out.Teams, r.Teams)

	if r.CurrentTeam != nil {
		team := *r.CurrentTeam
		out.CurrentTeam = &team
	}
	if r.TimerEnd != nil {
		end := *r.TimerEnd
		out.TimerEnd = &end
	}

	out.RoundTeams = make(map[int]int, len(r.RoundTeams))
	for k, v := range r.RoundTeams {
		out.RoundTeams[k] = v
	}

	out.Votes = make(map[int]map[string]RatingMap, len(r.Votes))
	for round, byVoter := range r.Votes {
		dst := make(map[string]RatingMap, len(byVoter))
		for voter, ratings := range byVoter {
			dst[voter] = ratings.Clone()
		}
		out.Votes[round] = dst
	}

	return out
}

// VotingOpen reports whether the voting window is open: a timer end is set
// and strictly in the future. The closing is soft: every observer evaluates
// this against its own wall clock.
func (r Room) VotingOpen(now time.Time) bool {
	return r.TimerEnd != nil && now.Before(*r.TimerEnd)
}

// TeamForRound returns the team evaluated in the given round, from the
// append-only history.
func (r Room) TeamForRound(round int) (int, bool) {
	team, ok := r.RoundTeams[round]
	return team, ok
}

// VoteCount returns how many votes are stored for a round.
func (r Room) VoteCount(round int) int {
	return len(r.Votes[round])
}
