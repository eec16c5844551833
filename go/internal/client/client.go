// Package client is the participant side of a scoring room: one live
// subscription to the shared record, a view re-derived from every
// snapshot, and the command surface (host transitions, player votes) with
// local guards applied before anything reaches the store.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/roomcode"
	"github.com/openpitch/scoreroom/go/internal/store"
)

// Role determines which commands a session may issue.
type Role string

const (
	// RoleHost drives rounds, teams and timers. Hosts do not vote.
	RoleHost Role = "host"
	// RolePlayer observes and submits ballots.
	RolePlayer Role = "player"
)

var (
	// ErrNotHost is returned when a player session issues a host command.
	ErrNotHost = errors.New("command requires the host role")
	// ErrNotVoter is returned when a host session tries to vote.
	ErrNotVoter = errors.New("hosts do not vote")
	// ErrRoundNotInHistory is returned when selecting a round the history
	// does not contain.
	ErrRoundNotInHistory = errors.New("round has no recorded team")
)

// CreateRoom creates a fresh room in the store and returns its join code.
// The room starts at round 0 with no team and no timer.
func CreateRoom(ctx context.Context, st store.Store, teams []string, clock clockwork.Clock) (string, error) {
	r, err := room.New(teams, clock.Now())
	if err != nil {
		return "", err
	}

	code, err := roomcode.New()
	if err != nil {
		return "", err
	}

	// A code collision is vanishingly unlikely and surfaces as ErrRoomExists;
	// the caller retries the whole action like any other transient failure.
	if err := st.CreateRoom(ctx, code, r); err != nil {
		return "", fmt.Errorf("failed to create room %s: %w", code, err)
	}
	return code, nil
}

// Join checks that a room exists and returns its current value. A bad code
// surfaces store.ErrRoomNotFound with no retry.
func Join(ctx context.Context, st store.Store, code string) (room.Room, error) {
	code = roomcode.Normalize(code)
	if !roomcode.Valid(code) {
		return room.Room{}, store.ErrRoomNotFound
	}
	return st.GetRoom(ctx, code)
}
