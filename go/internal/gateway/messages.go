package gateway

import (
	"encoding/json"
	"time"

	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/scoring"
)

// ServerMessageType identifies a message pushed to a client.
type ServerMessageType string

const (
	// MessageTypeSnapshot carries the full projection after every room change.
	MessageTypeSnapshot ServerMessageType = "snapshot"
	// MessageTypeRoundView carries a historical round's aggregates on demand.
	MessageTypeRoundView ServerMessageType = "roundView"
	// MessageTypeError reports a rejected command to the issuing client.
	MessageTypeError ServerMessageType = "error"
)

// ServerMessage is the envelope pushed over a websocket.
type ServerMessage struct {
	Type ServerMessageType `json:"type"`
	Data json.RawMessage   `json:"data,omitempty"`
}

// Snapshot is the read-only projection broadcast on every room change.
// Clients re-render from it wholesale; they do not diff.
type Snapshot struct {
	Code              string             `json:"code"`
	Teams             []string           `json:"teams"`
	CurrentRound      int                `json:"currentRound"`
	CurrentTeam       *int               `json:"currentTeam,omitempty"`
	TimerRemainingSec int                `json:"timerRemainingSec"`
	TimerRunning      bool               `json:"timerRunning"`
	RoundTeams        map[int]int        `json:"roundTeams"`
	VoteCount         int                `json:"voteCount"`
	CriterionAverages map[string]float64 `json:"criterionAverages"`
	Leaderboard       []scoring.Entry    `json:"leaderboard"`
	ServerTime        time.Time          `json:"serverTime"`
}

// RoundView is the reply to a viewRound command.
type RoundView struct {
	Round             int                `json:"round"`
	Team              *int               `json:"team,omitempty"`
	VoteCount         int                `json:"voteCount"`
	CriterionAverages map[string]float64 `json:"criterionAverages"`
}

// ErrorReply reports a rejected command.
type ErrorReply struct {
	Command string `json:"command"`
	Error   string `json:"error"`
}

// CommandType identifies a client command.
type CommandType string

const (
	CommandSelectTeam   CommandType = "selectTeam"
	CommandStartTimer   CommandType = "startTimer"
	CommandStopTimer    CommandType = "stopTimer"
	CommandAdvanceRound CommandType = "advanceRound"
	CommandRetreatRound CommandType = "retreatRound"
	CommandSubmitVote   CommandType = "submitVote"
	CommandViewRound    CommandType = "viewRound"
)

// Command is a client request over the websocket.
type Command struct {
	Type    CommandType    `json:"type"`
	Round   int            `json:"round,omitempty"`
	Team    int            `json:"team,omitempty"`
	Ratings room.RatingMap `json:"ratings,omitempty"`
}
