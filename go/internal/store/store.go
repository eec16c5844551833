// Package store defines the shared-record contract every room store
// implements: create, point-in-time read, atomic read-modify-write
// transitions, blind voter-keyed vote writes, and push-based subscriptions
// delivering full-room snapshots.
package store

import (
	"context"
	"errors"

	"github.com/openpitch/scoreroom/go/internal/room"
)

var (
	// ErrRoomExists is returned by CreateRoom when the code is taken.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when a code maps to no room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrConflict is returned when an atomic update exhausted its retries
	// against concurrent writers. Treated as a transient failure.
	ErrConflict = errors.New("room update conflicted too many times")
)

// Store is the shared data layer for rooms.
//
// UpdateRoom is the central correctness mechanism: the transition runs
// against the current value and the write only lands if no concurrent
// writer intervened, otherwise the transition is re-run on fresher data.
// PutVote deliberately bypasses that machinery: the (round, voter) slot is
// stable and voter-owned, so a racing duplicate write overwrites rather
// than duplicates and cross-voter writes commute.
type Store interface {
	CreateRoom(ctx context.Context, code string, r room.Room) error
	GetRoom(ctx context.Context, code string) (room.Room, error)
	UpdateRoom(ctx context.Context, code string, fn room.Transition) (room.Room, error)
	PutVote(ctx context.Context, code string, round int, voterID string, ratings room.RatingMap) error
	Watch(ctx context.Context, code string) (Subscription, error)
}

// Subscription is one live feed of a room's snapshots. The initial value
// is delivered first, then every subsequent change. A participant must
// Close before watching a different room so it never receives duplicate
// snapshot streams.
type Subscription interface {
	// Updates delivers full-room snapshots. Intermediate snapshots may be
	// skipped under load; the latest value is always delivered. The channel
	// closes when the subscription ends.
	Updates() <-chan room.Room
	// Close cancels the subscription. Safe to call more than once.
	Close()
}
