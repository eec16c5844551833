package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Handler receives the code of a room that changed.
type Handler func(code string)

// Consumer subscribes to every room event subject and hands room codes to
// a handler. Gateway nodes use it to learn about writes committed through
// other nodes.
type Consumer struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	config  Config
	handler Handler
}

// NewConsumer connects and subscribes to <prefix>.>.
func NewConsumer(cfg Config, handler Handler) (*Consumer, error) {
	nc, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	c := &Consumer{nc: nc, config: cfg, handler: handler}
	subject := fmt.Sprintf("%s.>", cfg.SubjectPrefix)
	sub, err := nc.Subscribe(subject, c.handleMessage)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	c.sub = sub

	log.Info().Str("subject", subject).Msg("room event consumer started")
	return c, nil
}

func (c *Consumer) handleMessage(msg *nats.Msg) {
	var event RoomEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal room event")
		return
	}
	if event.Code == "" {
		log.Warn().Str("subject", msg.Subject).Msg("room event without code, ignoring")
		return
	}
	c.handler(event.Code)
}

// Close unsubscribes and closes the connection.
func (c *Consumer) Close() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe room events")
		}
	}
	c.nc.Close()
}
