// Package events carries cross-node room change notifications over NATS.
// Payloads are intentionally thin: they name the room that changed, and
// consumers re-read the full record from the store. No state rides the bus.
package events

import (
	"encoding/json"
	"time"
)

// EventType identifies a room event on the bus.
type EventType string

const (
	// EventTypeRoomUpdated fires on every committed write to a room record,
	// transitions and vote writes alike.
	EventTypeRoomUpdated EventType = "RoomUpdated"
)

// RoomEvent is the envelope published to room.events.<code>.
type RoomEvent struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RoomUpdatedPayload is the payload for RoomUpdated events.
type RoomUpdatedPayload struct {
	Code      string    `json:"code"`
	UpdatedAt time.Time `json:"updated_at"`
}
