package room

import "errors"

// Validation errors are resolved locally, before any write reaches the
// store, and are reported to the initiating user synchronously.
var (
	ErrTooFewTeams      = errors.New("room needs at least two teams")
	ErrUnknownTeam      = errors.New("team index out of range")
	ErrUnknownRound     = errors.New("round index out of range")
	ErrNoTeamSelected   = errors.New("no team selected for this round")
	ErrTimerRunning     = errors.New("timer is running")
	ErrVotingClosed     = errors.New("voting window is closed")
	ErrOwnTeam          = errors.New("a team may not vote on itself")
	ErrAlreadyVoted     = errors.New("voter already voted this round")
	ErrIncompleteBallot = errors.New("ballot must rate every criterion")
)
