// Package gateway bridges websocket clients to the room store: it upgrades
// connections, watches each room with active clients, pushes the full
// projection on every change, and applies client commands through the
// store's transactional primitive.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/openpitch/scoreroom/go/internal/client"
	"github.com/openpitch/scoreroom/go/internal/criteria"
	"github.com/openpitch/scoreroom/go/internal/events"
	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/roomcode"
	"github.com/openpitch/scoreroom/go/internal/scoring"
	"github.com/openpitch/scoreroom/go/internal/store"
)

// Service is the gateway service.
type Service struct {
	store   store.Store
	table   criteria.Table
	clock   clockwork.Clock
	cm      *ConnectionManager
	pub     *events.Publisher // optional cross-node fanout
	hostKey string

	mu      sync.Mutex
	watches map[string]*roomWatch
}

type roomWatch struct {
	sub    store.Subscription
	cancel context.CancelFunc
}

// New creates a gateway service. pub may be nil for single-node setups.
func New(st store.Store, table criteria.Table, clock clockwork.Clock, hostKey string, pub *events.Publisher) *Service {
	s := &Service{
		store:   st,
		table:   table,
		clock:   clock,
		pub:     pub,
		hostKey: hostKey,
		watches: make(map[string]*roomWatch),
	}
	s.cm = NewConnectionManager(DefaultConnectionConfig(), s.handleCommand, s.releaseWatch)
	return s
}

// ConnectionManager exposes the manager for the server loop.
func (s *Service) ConnectionManager() *ConnectionManager { return s.cm }

// Routes registers the gateway's HTTP endpoints.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{code}", s.handleGetRoom)
	mux.HandleFunc("GET /rooms/{code}/ws", s.handleWebsocket)
	mux.HandleFunc("GET /stats", s.handleStats)
}

// HandleRoomEvent is the NATS consumer hook: another node committed a
// write, re-read and re-broadcast if we have clients on that room.
func (s *Service) HandleRoomEvent(code string) {
	if s.cm.ConnectionCount(code) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := s.store.GetRoom(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to reload room for event")
		return
	}
	s.broadcastSnapshot(code, r)
}

type createRoomRequest struct {
	Teams   []string `json:"teams"`
	HostKey string   `json:"hostKey"`
}

type createRoomResponse struct {
	Code string `json:"code"`
}

func (s *Service) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.hostAuthorized(req.HostKey) {
		errorResponse(w, http.StatusForbidden, "invalid host key")
		return
	}

	code, err := client.CreateRoom(r.Context(), s.store, req.Teams, s.clock)
	if err != nil {
		if errors.Is(err, room.ErrTooFewTeams) {
			errorResponse(w, http.StatusBadRequest, room.ErrTooFewTeams.Error())
			return
		}
		log.Error().Err(err).Msg("failed to create room")
		errorResponse(w, http.StatusInternalServerError, "could not create room")
		return
	}

	log.Info().Str("room", code).Int("teams", len(req.Teams)).Msg("room created")
	jsonResponse(w, http.StatusCreated, createRoomResponse{Code: code})
}

func (s *Service) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := roomcode.Normalize(r.PathValue("code"))

	rm, err := client.Join(r.Context(), s.store, code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			errorResponse(w, http.StatusNotFound, "room not found")
			return
		}
		log.Error().Err(err).Str("room", code).Msg("failed to read room")
		errorResponse(w, http.StatusInternalServerError, "could not read room")
		return
	}

	jsonResponse(w, http.StatusOK, s.snapshot(code, rm))
}

func (s *Service) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	code := roomcode.Normalize(r.PathValue("code"))

	if _, err := s.store.GetRoom(r.Context(), code); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			errorResponse(w, http.StatusNotFound, "room not found")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "could not read room")
		return
	}

	voterID := r.URL.Query().Get("voter")
	isHost := s.hostAuthorized(r.URL.Query().Get("hostKey"))
	if voterID == "" && !isHost {
		errorResponse(w, http.StatusBadRequest, "voter identity required")
		return
	}

	teamIndex := -1
	if !isHost {
		var err error
		teamIndex, err = strconv.Atoi(r.URL.Query().Get("team"))
		if err != nil || teamIndex < 0 {
			errorResponse(w, http.StatusBadRequest, "team index required")
			return
		}
	}

	if err := s.ensureWatch(code); err != nil {
		errorResponse(w, http.StatusInternalServerError, "could not subscribe to room")
		return
	}

	if err := s.cm.UpgradeConnection(r.Context(), w, r, voterID, code, teamIndex, isHost); err != nil {
		log.Error().Err(err).Str("room", code).Msg("websocket upgrade failed")
	}
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.cm.Stats())
}

// ensureWatch starts a store subscription for a room the first time a
// client connects to it.
func (s *Service) ensureWatch(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watches[code]; ok {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := s.store.Watch(ctx, code)
	if err != nil {
		cancel()
		return err
	}
	s.watches[code] = &roomWatch{sub: sub, cancel: cancel}

	go func() {
		for r := range sub.Updates() {
			s.broadcastSnapshot(code, r)
		}
	}()

	log.Debug().Str("room", code).Msg("room watch started")
	return nil
}

// releaseWatch tears a room's subscription down once its last client is
// gone. The subscription must be closed before any new one for the same
// participant set, so snapshot streams never double up.
func (s *Service) releaseWatch(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watches[code]
	if !ok {
		return
	}
	delete(s.watches, code)
	w.cancel()
	w.sub.Close()
	log.Debug().Str("room", code).Msg("room watch released")
}

// broadcastSnapshot projects the room and pushes it to every connection.
func (s *Service) broadcastSnapshot(code string, r room.Room) {
	payload, err := marshalMessage(MessageTypeSnapshot, s.snapshot(code, r))
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to marshal snapshot")
		return
	}
	s.cm.BroadcastToRoom(code, payload)
}

// snapshot builds the shared projection for the live round.
func (s *Service) snapshot(code string, r room.Room) Snapshot {
	now := s.clock.Now()
	snap := Snapshot{
		Code:              code,
		Teams:             r.Teams,
		CurrentRound:      r.CurrentRound,
		CurrentTeam:       r.CurrentTeam,
		TimerRunning:      r.VotingOpen(now),
		RoundTeams:        r.RoundTeams,
		VoteCount:         r.VoteCount(r.CurrentRound),
		CriterionAverages: scoring.CriterionAverages(s.table, r.Votes[r.CurrentRound]),
		Leaderboard:       scoring.BuildLeaderboard(s.table, r),
		ServerTime:        now,
	}
	if r.TimerEnd != nil {
		if remaining := r.TimerEnd.Sub(now); remaining > 0 {
			snap.TimerRemainingSec = int(remaining / time.Second)
		}
	}
	return snap
}

func (s *Service) hostAuthorized(key string) bool {
	if s.hostKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.hostKey)) == 1
}

// publishUpdated tells other nodes the room changed.
func (s *Service) publishUpdated(ctx context.Context, code string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishRoomUpdated(ctx, code, s.clock.Now()); err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to publish room update")
	}
}

func marshalMessage(t ServerMessageType, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ServerMessage{Type: t, Data: raw})
}

func jsonResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
