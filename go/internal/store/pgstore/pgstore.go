// Package pgstore is the Postgres-backed room store. Rooms live in a
// single version-stamped jsonb row; transitions are optimistic
// compare-and-swap updates, vote writes are jsonb_set on the voter-keyed
// slot, and change notifications ride Postgres LISTEN/NOTIFY so watchers
// re-read the full record on every write.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/store"
)

// maxRetries bounds the CAS loop in UpdateRoom.
const maxRetries = 16

// notifyChannel is the Postgres NOTIFY channel carrying room codes.
const notifyChannel = "room_events"

// Store is a Postgres store.Store.
type Store struct {
	pool    *pgxpool.Pool
	watcher *watcher
}

// New connects a store to an existing pool and starts its notification
// listener. listenDSN is a lib/pq DSN for the LISTEN connection.
func New(pool *pgxpool.Pool, listenDSN string) (*Store, error) {
	s := &Store{pool: pool}

	w, err := newWatcher(listenDSN, s.reload)
	if err != nil {
		return nil, fmt.Errorf("failed to start room watcher: %w", err)
	}
	s.watcher = w
	return s, nil
}

var _ store.Store = (*Store)(nil)

// Run drives the notification listener until ctx is cancelled.
func (s *Store) Run(ctx context.Context) error {
	return s.watcher.run(ctx)
}

// CreateRoom inserts the room record. Fails if the code is already taken.
func (s *Store) CreateRoom(ctx context.Context, code string, r room.Room) error {
	record, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (code, record, version, created_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (code) DO NOTHING
	`, code, record, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrRoomExists
	}
	return s.notify(ctx, code)
}

// GetRoom reads the room record once.
func (s *Store) GetRoom(ctx context.Context, code string) (room.Room, error) {
	var record []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM rooms WHERE code = $1`, code).Scan(&record)
	if err == pgx.ErrNoRows {
		return room.Room{}, store.ErrRoomNotFound
	}
	if err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	var r room.Room
	if err := json.Unmarshal(record, &r); err != nil {
		return room.Room{}, fmt.Errorf("failed to unmarshal room record: %w", err)
	}
	return r, nil
}

// UpdateRoom applies fn as an optimistic compare-and-swap: read record and
// version, run the transition, write back only if the version is untouched,
// else re-run fn against the fresher value.
func (s *Store) UpdateRoom(ctx context.Context, code string, fn room.Transition) (room.Room, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		var (
			record  []byte
			version int64
		)
		err := s.pool.QueryRow(ctx, `
			SELECT record, version FROM rooms WHERE code = $1
		`, code).Scan(&record, &version)
		if err == pgx.ErrNoRows {
			return room.Room{}, store.ErrRoomNotFound
		}
		if err != nil {
			return room.Room{}, fmt.Errorf("failed to read room for update: %w", err)
		}

		var current room.Room
		if err := json.Unmarshal(record, &current); err != nil {
			return room.Room{}, fmt.Errorf("failed to unmarshal room record: %w", err)
		}

		next, err := fn(current)
		if err != nil {
			return room.Room{}, err
		}

		nextRecord, err := json.Marshal(next)
		if err != nil {
			return room.Room{}, fmt.Errorf("failed to marshal room: %w", err)
		}

		tag, err := s.pool.Exec(ctx, `
			UPDATE rooms SET record = $1, version = version + 1
			WHERE code = $2 AND version = $3
		`, nextRecord, code, version)
		if err != nil {
			return room.Room{}, fmt.Errorf("failed to write room: %w", err)
		}
		if tag.RowsAffected() == 0 {
			log.Debug().Str("code", code).Int("attempt", attempt+1).Msg("room update conflicted, retrying")
			continue
		}

		if err := s.notify(ctx, code); err != nil {
			log.Error().Err(err).Str("code", code).Msg("failed to notify room change")
		}
		return next, nil
	}
	return room.Room{}, store.ErrConflict
}

// PutVote writes a ballot into the (round, voter) slot in place. The slot
// is voter-owned, so this never needs the CAS loop: a duplicate submission
// overwrites the same slot, distinct voters touch distinct slots.
func (s *Store) PutVote(ctx context.Context, code string, round int, voterID string, ratings room.RatingMap) error {
	ballot, err := json.Marshal(ratings)
	if err != nil {
		return fmt.Errorf("failed to marshal ballot: %w", err)
	}

	roundKey := strconv.Itoa(round)
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms
		SET record = jsonb_set(
			jsonb_set(
				record,
				ARRAY['votes', $2::text],
				COALESCE(record #> ARRAY['votes', $2::text], '{}'::jsonb),
				true
			),
			ARRAY['votes', $2::text, $3::text],
			$4::jsonb,
			true
		),
		version = version + 1
		WHERE code = $1
	`, code, roundKey, voterID, ballot)
	if err != nil {
		return fmt.Errorf("failed to write vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrRoomNotFound
	}
	return s.notify(ctx, code)
}

// Watch subscribes to a room's change feed.
func (s *Store) Watch(ctx context.Context, code string) (store.Subscription, error) {
	initial, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.watcher.subscribe(ctx, code, initial), nil
}

// PruneBefore deletes rooms created before cutoff; the retention window is
// a deployment policy, not core room semantics.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune rooms: %w", err)
	}
	return tag.RowsAffected(), nil
}

// notify wakes every listener watching this room.
func (s *Store) notify(ctx context.Context, code string) error {
	_, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, code)
	return err
}

// reload fetches the latest record for a code on behalf of the watcher.
func (s *Store) reload(ctx context.Context, code string) (room.Room, error) {
	return s.GetRoom(ctx, code)
}
