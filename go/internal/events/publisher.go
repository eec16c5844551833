package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Config holds NATS connection settings for publishers and consumers.
type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns the default NATS configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "room.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

func connect(cfg Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	return nats.Connect(cfg.URL, opts...)
}

// Publisher publishes room events to NATS core subjects. Delivery is
// at-most-once: a missed event costs nothing because consumers re-read the
// full record and the fallback poll on the store side converges anyway.
type Publisher struct {
	nc     *nats.Conn
	config Config
}

// NewPublisher connects a publisher to NATS.
func NewPublisher(cfg Config) (*Publisher, error) {
	nc, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{nc: nc, config: cfg}, nil
}

// PublishRoomUpdated announces that a room's record changed.
func (p *Publisher) PublishRoomUpdated(ctx context.Context, code string, updatedAt time.Time) error {
	payload, err := json.Marshal(RoomUpdatedPayload{Code: code, UpdatedAt: updatedAt})
	if err != nil {
		return fmt.Errorf("failed to marshal RoomUpdated payload: %w", err)
	}

	event := RoomEvent{
		ID:        uuid.New().String(),
		Code:      code,
		Type:      EventTypeRoomUpdated,
		Timestamp: updatedAt,
		Data:      payload,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, code)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish room event: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
