package room

import "time"

// Transition is a pure state-machine step. It receives the latest known
// room value and returns the new value; the store applies it as an atomic
// read-modify-write and re-runs it against fresher data if a concurrent
// writer intervened. A Transition must never mutate its input.
type Transition func(Room) (Room, error)

// SelectTeam puts a team under evaluation for a round: sets CurrentTeam and
// records the round→team assignment in the history.
func SelectTeam(round, team int) Transition {
	return func(r Room) (Room, error) {
		if round < 0 {
			return Room{}, ErrUnknownRound
		}
		if team < 0 || team >= len(r.Teams) {
			return Room{}, ErrUnknownTeam
		}
		next := r.Clone()
		next.CurrentTeam = &team
		next.RoundTeams[round] = team
		return next, nil
	}
}

// StartTimer opens the voting window: TimerEnd = now + VotingWindow.
// Requires a team under evaluation.
func StartTimer(now time.Time) Transition {
	return func(r Room) (Room, error) {
		if r.CurrentTeam == nil {
			return Room{}, ErrNoTeamSelected
		}
		next := r.Clone()
		end := now.Add(VotingWindow)
		next.TimerEnd = &end
		return next, nil
	}
}

// StopTimer clears the voting window. Always legal; idempotent.
func StopTimer() Transition {
	return func(r Room) (Room, error) {
		next := r.Clone()
		next.TimerEnd = nil
		return next, nil
	}
}

// AdvanceRound moves to the next round and resets team and timer. Round
// indices are unbounded upward.
func AdvanceRound() Transition {
	return func(r Room) (Room, error) {
		next := r.Clone()
		next.CurrentRound++
		next.CurrentTeam = nil
		next.TimerEnd = nil
		return next, nil
	}
}

// RetreatRound moves to the previous round, flooring at 0, and resets team
// and timer.
func RetreatRound() Transition {
	return func(r Room) (Room, error) {
		next := r.Clone()
		if next.CurrentRound > 0 {
			next.CurrentRound--
		}
		next.CurrentTeam = nil
		next.TimerEnd = nil
		return next, nil
	}
}
