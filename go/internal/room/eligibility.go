package room

import "time"

// CanVote decides whether a voter may submit a ballot for the live round
// right now. It is a pure function of the room snapshot plus the voter's
// static identity: no client-local flags, so the verdict survives reloads.
//
// The checks, in order:
//  1. the voting window is open (TimerEnd set and strictly in the future),
//  2. the voter's own team is not the one under evaluation,
//  3. the voter has not already voted this round.
func CanVote(r Room, voterID string, voterTeam int, now time.Time) error {
	if !r.VotingOpen(now) {
		return ErrVotingClosed
	}
	if r.CurrentTeam != nil && voterTeam == *r.CurrentTeam {
		return ErrOwnTeam
	}
	if _, voted := r.Votes[r.CurrentRound][voterID]; voted {
		return ErrAlreadyVoted
	}
	return nil
}
