package client

import (
	"fmt"
	"sort"
	"time"

	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/scoring"
)

// View is the read-only projection handed to a UI layer on every snapshot
// and every countdown tick. Every field is re-derived from the latest
// full-room snapshot plus the session's static identity; nothing carries
// over from the previous view.
type View struct {
	Code         string
	Teams        []string
	CurrentRound int
	CurrentTeam  *int

	// SelectedRound is the round whose ballots are displayed. It may trail
	// the live round while the host browses history.
	SelectedRound int
	// RoundOptions lists the rounds that ever had a team assigned, sorted,
	// defaulting to round 0 when the history is empty.
	RoundOptions []int
	// SelectedTeam is the team recorded for SelectedRound, from the
	// append-only history, never from the live CurrentTeam.
	SelectedTeam *int

	TimerRunning   bool
	TimerRemaining time.Duration

	CanStartTimer      bool
	CanSubmitVote      bool
	TeamSelectorLocked bool

	CriterionAverages map[string]float64
	Leaderboard       []scoring.Entry
	VoteCount         int
}

// Countdown renders the remaining window as MM:SS, frozen at 00:00 once
// the deadline passes.
func (v View) Countdown() string {
	remaining := v.TimerRemaining
	if remaining < 0 {
		remaining = 0
	}
	secs := int(remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// deriveView recomputes the projection from a snapshot. selectedRound must
// already be reconciled against the snapshot's history.
func (s *Session) deriveView(r room.Room, selectedRound int, now time.Time) View {
	v := View{
		Code:          s.code,
		Teams:         append([]string(nil), r.Teams...),
		CurrentRound:  r.CurrentRound,
		SelectedRound: selectedRound,
		RoundOptions:  roundOptions(r),
	}

	if r.CurrentTeam != nil {
		team := *r.CurrentTeam
		v.CurrentTeam = &team
	}
	if team, ok := r.TeamForRound(selectedRound); ok {
		v.SelectedTeam = &team
	}

	v.TimerRunning = r.VotingOpen(now)
	if r.TimerEnd != nil {
		if remaining := r.TimerEnd.Sub(now); remaining > 0 {
			v.TimerRemaining = remaining
		}
	}

	v.TeamSelectorLocked = v.TimerRunning
	v.CanStartTimer = s.role == RoleHost && r.CurrentTeam != nil && !v.TimerRunning
	v.CanSubmitVote = s.role == RolePlayer &&
		room.CanVote(r, s.voterID, s.teamIndex, now) == nil

	v.CriterionAverages = scoring.CriterionAverages(s.table, r.Votes[selectedRound])
	v.Leaderboard = scoring.BuildLeaderboard(s.table, r)
	v.VoteCount = r.VoteCount(selectedRound)
	return v
}

// roundOptions is the round selector source: every round that ever had a
// team assigned, sorted ascending, defaulting to round 0.
func roundOptions(r room.Room) []int {
	if len(r.RoundTeams) == 0 {
		return []int{0}
	}
	rounds := make([]int, 0, len(r.RoundTeams))
	for round := range r.RoundTeams {
		rounds = append(rounds, round)
	}
	sort.Ints(rounds)
	return rounds
}

func containsRound(options []int, round int) bool {
	for _, r := range options {
		if r == round {
			return true
		}
	}
	return false
}
