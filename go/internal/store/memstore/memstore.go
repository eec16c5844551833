// Package memstore is the in-memory room store: version-stamped records
// guarded by a mutex, compare-and-swap updates, and snapshot fanout to
// subscribers. It backs tests and single-node deployments, and its
// concurrency semantics mirror the remote store: transitions retry against
// fresher data when a concurrent writer lands first.
package memstore

import (
	"context"
	"sync"

	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/store"
)

// maxRetries bounds the CAS loop in UpdateRoom before the update is
// reported as a transient conflict failure.
const maxRetries = 16

// Store is an in-memory store.Store.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*entry
}

type entry struct {
	version uint64
	room    room.Room
	subs    map[*subscription]struct{}
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{rooms: make(map[string]*entry)}
}

var _ store.Store = (*Store)(nil)

// CreateRoom registers a new room under code.
func (s *Store) CreateRoom(ctx context.Context, code string, r room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[code]; exists {
		return store.ErrRoomExists
	}
	s.rooms[code] = &entry{
		version: 1,
		room:    r.Clone(),
		subs:    make(map[*subscription]struct{}),
	}
	return nil
}

// GetRoom returns a point-in-time copy of the room.
func (s *Store) GetRoom(ctx context.Context, code string) (room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.rooms[code]
	if !ok {
		return room.Room{}, store.ErrRoomNotFound
	}
	return e.room.Clone(), nil
}

// UpdateRoom applies fn as a compare-and-swap against the latest value.
// fn runs outside the lock; if another writer bumps the version between
// read and write, fn is re-run on the fresher value.
func (s *Store) UpdateRoom(ctx context.Context, code string, fn room.Transition) (room.Room, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return room.Room{}, err
		}

		s.mu.Lock()
		e, ok := s.rooms[code]
		if !ok {
			s.mu.Unlock()
			return room.Room{}, store.ErrRoomNotFound
		}
		readVersion := e.version
		snapshot := e.room.Clone()
		s.mu.Unlock()

		next, err := fn(snapshot)
		if err != nil {
			return room.Room{}, err
		}

		s.mu.Lock()
		e, ok = s.rooms[code]
		if !ok {
			s.mu.Unlock()
			return room.Room{}, store.ErrRoomNotFound
		}
		if e.version != readVersion {
			s.mu.Unlock()
			continue
		}
		e.version++
		e.room = next.Clone()
		s.fanoutLocked(e)
		s.mu.Unlock()
		return next, nil
	}
	return room.Room{}, store.ErrConflict
}

// PutVote writes a ballot into the (round, voter) slot unconditionally.
// The slot key is stable per voter per round, so a duplicate submission
// overwrites rather than duplicates, and distinct voters never conflict.
// The deadline is not re-checked here: a late ballot on a delayed write
// lands and counts.
func (s *Store) PutVote(ctx context.Context, code string, round int, voterID string, ratings room.RatingMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.rooms[code]
	if !ok {
		return store.ErrRoomNotFound
	}

	next := e.room.Clone()
	if next.Votes[round] == nil {
		next.Votes[round] = make(map[string]room.RatingMap)
	}
	next.Votes[round][voterID] = ratings.Clone()
	e.room = next
	e.version++
	s.fanoutLocked(e)
	return nil
}

// Watch subscribes to a room. The current value is delivered immediately,
// then every change. The subscription ends when Close is called or ctx is
// cancelled.
func (s *Store) Watch(ctx context.Context, code string) (store.Subscription, error) {
	s.mu.Lock()
	e, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return nil, store.ErrRoomNotFound
	}

	sub := &subscription{
		ch:    make(chan room.Room, 1),
		store: s,
		code:  code,
	}
	e.subs[sub] = struct{}{}
	sub.push(e.room.Clone())
	s.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Close()
			case <-sub.done():
			}
		}()
	}
	return sub, nil
}

// fanoutLocked pushes the latest snapshot to every subscriber. Callers hold
// s.mu.
func (s *Store) fanoutLocked(e *entry) {
	for sub := range e.subs {
		sub.push(e.room.Clone())
	}
}

type subscription struct {
	ch    chan room.Room
	store *Store
	code  string

	closeOnce sync.Once
	closedCh  chan struct{}
	initOnce  sync.Once
}

func (sub *subscription) done() chan struct{} {
	sub.initOnce.Do(func() { sub.closedCh = make(chan struct{}) })
	return sub.closedCh
}

// push delivers a snapshot with latest-wins semantics: if the subscriber
// has not drained the previous snapshot it is replaced, never queued.
func (sub *subscription) push(r room.Room) {
	select {
	case sub.ch <- r:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- r:
		default:
		}
	}
}

func (sub *subscription) Updates() <-chan room.Room { return sub.ch }

func (sub *subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.store.mu.Lock()
		if e, ok := sub.store.rooms[sub.code]; ok {
			delete(e.subs, sub)
		}
		sub.store.mu.Unlock()
		close(sub.done())
		close(sub.ch)
	})
}
