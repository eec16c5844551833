package pgstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/openpitch/scoreroom/go/internal/room"
)

// watcherConfig tunes the LISTEN/NOTIFY loop.
type watcherConfig struct {
	fallbackInterval time.Duration // poll watched rooms in case a NOTIFY was missed
	pingInterval     time.Duration
}

func defaultWatcherConfig() watcherConfig {
	return watcherConfig{
		fallbackInterval: 30 * time.Second,
		pingInterval:     90 * time.Second,
	}
}

// reloadFunc fetches the current record for a room code.
type reloadFunc func(ctx context.Context, code string) (room.Room, error)

// watcher fans Postgres notifications out to per-room subscriptions. Every
// notification carries only the room code; subscribers always re-read the
// full record, never apply deltas.
type watcher struct {
	listener *pq.Listener
	reload   reloadFunc
	cfg      watcherConfig

	mu   sync.Mutex
	subs map[string]map[*pgSubscription]struct{}
}

func newWatcher(dsn string, reload reloadFunc) (*watcher, error) {
	l := pq.NewListener(
		dsn,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("room listener event")
			}
		},
	)
	if err := l.Listen(notifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().Str("channel", notifyChannel).Msg("listening for room notifications")

	return &watcher{
		listener: l,
		reload:   reload,
		cfg:      defaultWatcherConfig(),
		subs:     make(map[string]map[*pgSubscription]struct{}),
	}, nil
}

func (w *watcher) run(ctx context.Context) error {
	pingTicker := time.NewTicker(w.cfg.pingInterval)
	fallbackTicker := time.NewTicker(w.cfg.fallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("room watcher shutting down")
			return w.listener.Close()
		case note := <-w.listener.Notify:
			if note == nil {
				// nil notification means the connection was lost and is
				// being re-established; the fallback poll covers the gap.
				continue
			}
			w.deliver(ctx, note.Extra)
		case <-fallbackTicker.C:
			for _, code := range w.watchedCodes() {
				w.deliver(ctx, code)
			}
		case <-pingTicker.C:
			if err := w.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping room listener")
			}
		}
	}
}

// deliver re-reads the room and pushes the snapshot to its subscribers.
func (w *watcher) deliver(ctx context.Context, code string) {
	w.mu.Lock()
	n := len(w.subs[code])
	w.mu.Unlock()
	if n == 0 {
		return
	}

	r, err := w.reload(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("failed to reload room for watchers")
		return
	}

	w.mu.Lock()
	for sub := range w.subs[code] {
		sub.push(r.Clone())
	}
	w.mu.Unlock()
}

func (w *watcher) watchedCodes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	codes := make([]string, 0, len(w.subs))
	for code := range w.subs {
		codes = append(codes, code)
	}
	return codes
}

func (w *watcher) subscribe(ctx context.Context, code string, initial room.Room) *pgSubscription {
	sub := &pgSubscription{
		ch:      make(chan room.Room, 1),
		watcher: w,
		code:    code,
		closed:  make(chan struct{}),
	}

	w.mu.Lock()
	if w.subs[code] == nil {
		w.subs[code] = make(map[*pgSubscription]struct{})
	}
	w.subs[code][sub] = struct{}{}
	sub.push(initial)
	w.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Close()
			case <-sub.closed:
			}
		}()
	}
	return sub
}

type pgSubscription struct {
	ch      chan room.Room
	watcher *watcher
	code    string

	closeOnce sync.Once
	closed    chan struct{}
}

// push delivers with latest-wins semantics, matching the convergence
// contract: intermediate snapshots may be skipped, the final one never is.
func (sub *pgSubscription) push(r room.Room) {
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

func (sub *pgSubscription) Updates() <-chan room.Room { return sub.ch }

func (sub *pgSubscription) Close() {
	sub.closeOnce.Do(func() {
		w := sub.watcher
		w.mu.Lock()
		if set, ok := w.subs[sub.code]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(w.subs, sub.code)
			}
		}
		w.mu.Unlock()
		close(sub.closed)
		close(sub.ch)
	})
}
