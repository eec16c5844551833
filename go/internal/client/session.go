package client

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/openpitch/scoreroom/go/internal/criteria"
	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/store"
)

// SessionConfig configures one participant session.
type SessionConfig struct {
	Code      string
	Role      Role
	VoterID   string // players only
	TeamIndex int    // the voter's own team; ignored for hosts
	Clock     clockwork.Clock
}

// Session is one participant's live attachment to a room: a single store
// subscription, a 1 Hz countdown tick, and re-derivation of the view on
// every input. A session is logically sequential: snapshots and ticks are
// processed one at a time by the run loop.
type Session struct {
	st    store.Store
	table criteria.Table
	clock clockwork.Clock

	code      string
	role      Role
	voterID   string
	teamIndex int

	mu            sync.Mutex
	current       room.Room
	ready         bool
	selectedRound int
	selectionMade bool
	convergedEnd  time.Time

	views  chan View
	sub    store.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession builds a session. Call Start to attach it to the room.
func NewSession(st store.Store, table criteria.Table, cfg SessionConfig) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	teamIndex := cfg.TeamIndex
	if cfg.Role == RoleHost {
		teamIndex = -1
	}
	return &Session{
		st:        st,
		table:     table,
		clock:     clock,
		code:      cfg.Code,
		role:      cfg.Role,
		voterID:   cfg.VoterID,
		teamIndex: teamIndex,
		views:     make(chan View, 1),
		done:      make(chan struct{}),
	}
}

// Start subscribes to the room and begins the run loop. The initial
// snapshot produces the first view.
func (s *Session) Start(ctx context.Context) error {
	sub, err := s.st.Watch(ctx, s.code)
	if err != nil {
		return err
	}
	s.sub = sub

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx)
	return nil
}

// Views delivers the latest projection. Intermediate views may be skipped
// if the consumer is slow; the newest one is always available.
func (s *Session) Views() <-chan View { return s.views }

// Close detaches from the room. Must be called before attaching to a
// different room so snapshot streams are never doubled up.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.sub != nil {
		s.sub.Close()
	}
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	ticker := s.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-s.sub.Updates():
			if !ok {
				return
			}
			s.onSnapshot(r)
		case <-ticker.Chan():
			s.onTick(ctx)
		}
	}
}

// onSnapshot replaces local state with the remote truth and re-derives the
// view. The round selection is reconciled: a still-valid history choice is
// preserved, anything else falls back to the live round.
func (s *Session) onSnapshot(r room.Room) {
	now := s.clock.Now()

	s.mu.Lock()
	s.current = r
	s.ready = true
	options := roundOptions(r)
	if !s.selectionMade || !containsRound(options, s.selectedRound) {
		s.selectedRound = r.CurrentRound
		s.selectionMade = false
	}
	view := s.deriveView(r, s.selectedRound, now)
	s.mu.Unlock()

	s.pushView(view)
}

// onTick advances the countdown between snapshots and, for the host,
// converges shared state once the local clock passes the deadline.
func (s *Session) onTick(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return
	}
	r := s.current
	view := s.deriveView(r, s.selectedRound, now)

	var convergeEnd *time.Time
	if s.role == RoleHost && r.TimerEnd != nil && !now.Before(*r.TimerEnd) && !s.convergedEnd.Equal(*r.TimerEnd) {
		s.convergedEnd = *r.TimerEnd
		end := *r.TimerEnd
		convergeEnd = &end
	}
	s.mu.Unlock()

	s.pushView(view)

	if convergeEnd != nil {
		// Exactly one observer, the host, persists the closure so late
		// joiners see a consistent stopped timer. Best effort only.
		go func() {
			if _, err := s.st.UpdateRoom(ctx, s.code, room.StopTimer()); err != nil {
				log.Error().Err(err).Str("code", s.code).Msg("failed to persist timer expiry")
			}
		}()
	}
}

// pushView delivers with latest-wins semantics.
func (s *Session) pushView(v View) {
	select {
	case s.views <- v:
	default:
		select {
		case <-s.views:
		default:
		}
		select {
		case s.views <- v:
		default:
		}
	}
}

// snapshot returns the last-known room value.
func (s *Session) snapshot() (room.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.ready
}

// SelectRound changes which historical round the view displays. Local
// only: it never touches the shared record.
func (s *Session) SelectRound(round int) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrRoundNotInHistory
	}
	r := s.current
	if !containsRound(roundOptions(r), round) {
		s.mu.Unlock()
		return ErrRoundNotInHistory
	}
	s.selectedRound = round
	s.selectionMade = true
	view := s.deriveView(r, round, s.clock.Now())
	s.mu.Unlock()

	s.pushView(view)
	return nil
}
