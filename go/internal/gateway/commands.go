package gateway

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/scoring"
	"github.com/openpitch/scoreroom/go/internal/store"
)

var (
	// errHostOnly rejects transition commands from non-host connections.
	errHostOnly = errors.New("command requires the host role")
	// errHostBallot rejects ballots from host connections.
	errHostBallot = errors.New("hosts do not vote")
)

// handleCommand routes one client command. Transitions go through the
// store's atomic update; vote writes go straight to the voter-keyed slot.
// Rejections are reported only to the issuing connection; accepted writes
// reach everyone through the room watch.
func (s *Service) handleCommand(ctx context.Context, conn *Connection, cmd Command) {
	var err error
	switch cmd.Type {
	case CommandSelectTeam:
		err = s.applyTransition(ctx, conn, room.SelectTeam(cmd.Round, cmd.Team))
	case CommandStartTimer:
		err = s.applyTransition(ctx, conn, room.StartTimer(s.clock.Now()))
	case CommandStopTimer:
		err = s.applyTransition(ctx, conn, room.StopTimer())
	case CommandAdvanceRound:
		err = s.applyTransition(ctx, conn, room.AdvanceRound())
	case CommandRetreatRound:
		err = s.applyTransition(ctx, conn, room.RetreatRound())
	case CommandSubmitVote:
		err = s.submitVote(ctx, conn, cmd)
	case CommandViewRound:
		err = s.viewRound(ctx, conn, cmd.Round)
	default:
		log.Warn().
			Str("connection_id", conn.ID).
			Str("command", string(cmd.Type)).
			Msg("unknown command, ignoring")
		return
	}

	if err != nil {
		s.sendError(conn, cmd, err)
	}
}

func (s *Service) applyTransition(ctx context.Context, conn *Connection, fn room.Transition) error {
	if !conn.IsHost {
		return errHostOnly
	}

	_, err := s.store.UpdateRoom(ctx, conn.RoomCode, fn)
	if errors.Is(err, store.ErrRoomNotFound) {
		// Room vanished out from under the host; nothing to transition.
		return nil
	}
	if err != nil {
		return err
	}

	s.publishUpdated(ctx, conn.RoomCode)
	return nil
}

// submitVote re-runs the eligibility gate against the freshest value and
// writes the ballot. The write is a blind put on the (round, voter) slot:
// a duplicate submission overwrites, never duplicates.
func (s *Service) submitVote(ctx context.Context, conn *Connection, cmd Command) error {
	if conn.IsHost {
		return errHostBallot
	}
	if !cmd.Ratings.Complete(s.table) {
		return room.ErrIncompleteBallot
	}

	r, err := s.store.GetRoom(ctx, conn.RoomCode)
	if err != nil {
		return err
	}
	if err := room.CanVote(r, conn.VoterID, conn.TeamIndex, s.clock.Now()); err != nil {
		return err
	}

	if err := s.store.PutVote(ctx, conn.RoomCode, r.CurrentRound, conn.VoterID, cmd.Ratings); err != nil {
		return err
	}
	s.publishUpdated(ctx, conn.RoomCode)
	return nil
}

// viewRound replies with a historical round's aggregates to the issuing
// connection only.
func (s *Service) viewRound(ctx context.Context, conn *Connection, round int) error {
	r, err := s.store.GetRoom(ctx, conn.RoomCode)
	if err != nil {
		return err
	}

	view := RoundView{
		Round:             round,
		VoteCount:         r.VoteCount(round),
		CriterionAverages: scoring.CriterionAverages(s.table, r.Votes[round]),
	}
	if team, ok := r.TeamForRound(round); ok {
		view.Team = &team
	}

	payload, err := marshalMessage(MessageTypeRoundView, view)
	if err != nil {
		return err
	}
	s.cm.SendToConnection(conn, payload)
	return nil
}

func (s *Service) sendError(conn *Connection, cmd Command, err error) {
	log.Debug().
		Str("connection_id", conn.ID).
		Str("command", string(cmd.Type)).
		Err(err).
		Msg("command rejected")

	payload, merr := marshalMessage(MessageTypeError, ErrorReply{
		Command: string(cmd.Type),
		Error:   err.Error(),
	})
	if merr != nil {
		return
	}
	s.cm.SendToConnection(conn, payload)
}
