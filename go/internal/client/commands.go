package client

import (
	"context"
	"errors"

	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/store"
)

// SelectTeam puts a team under evaluation for the live round. The
// timer-not-running check is a UI-level guard; a racing host session that
// slips past it is still safe because the transition is atomic against the
// latest remote value.
func (s *Session) SelectTeam(ctx context.Context, team int) error {
	if s.role != RoleHost {
		return ErrNotHost
	}

	snap, ready := s.snapshot()
	if !ready {
		return store.ErrRoomNotFound
	}
	if snap.VotingOpen(s.clock.Now()) {
		return room.ErrTimerRunning
	}
	if team < 0 || team >= len(snap.Teams) {
		return room.ErrUnknownTeam
	}

	_, err := s.st.UpdateRoom(ctx, s.code, room.SelectTeam(snap.CurrentRound, team))
	if errors.Is(err, store.ErrRoomNotFound) {
		// The room vanished under us (pruned); nothing to update.
		return nil
	}
	return err
}

// StartTimer opens the voting window for the team under evaluation.
func (s *Session) StartTimer(ctx context.Context) error {
	if s.role != RoleHost {
		return ErrNotHost
	}

	snap, ready := s.snapshot()
	if !ready || snap.CurrentTeam == nil {
		return room.ErrNoTeamSelected
	}

	_, err := s.st.UpdateRoom(ctx, s.code, room.StartTimer(s.clock.Now()))
	return err
}

// StopTimer closes the voting window. Idempotent.
func (s *Session) StopTimer(ctx context.Context) error {
	if s.role != RoleHost {
		return ErrNotHost
	}
	_, err := s.st.UpdateRoom(ctx, s.code, room.StopTimer())
	return err
}

// AdvanceRound moves the room to the next round.
func (s *Session) AdvanceRound(ctx context.Context) error {
	if s.role != RoleHost {
		return ErrNotHost
	}
	_, err := s.st.UpdateRoom(ctx, s.code, room.AdvanceRound())
	return err
}

// RetreatRound moves the room back one round, flooring at 0.
func (s *Session) RetreatRound(ctx context.Context) error {
	if s.role != RoleHost {
		return ErrNotHost
	}
	_, err := s.st.UpdateRoom(ctx, s.code, room.RetreatRound())
	return err
}

// SubmitVote runs the eligibility gate against the latest snapshot and, if
// it passes, writes the ballot to the voter-keyed slot. A double-click
// that outruns the next snapshot collapses into the same slot.
func (s *Session) SubmitVote(ctx context.Context, ratings room.RatingMap) error {
	if s.role != RolePlayer {
		return ErrNotVoter
	}
	if !ratings.Complete(s.table) {
		return room.ErrIncompleteBallot
	}

	snap, ready := s.snapshot()
	if !ready {
		return room.ErrVotingClosed
	}
	if err := room.CanVote(snap, s.voterID, s.teamIndex, s.clock.Now()); err != nil {
		return err
	}

	return s.st.PutVote(ctx, s.code, snap.CurrentRound, s.voterID, ratings)
}
