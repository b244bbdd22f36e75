package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/richxcame/creator-reviews/pkg/logger"
	"go.uber.org/zap"
)

// Event is the envelope published on the bus
type Event struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Handler processes a single event. Returning an error NAKs the message so it
// gets redelivered; handlers must therefore be idempotent.
type Handler func(ctx context.Context, event *Event) error

// Bus is a thin JetStream-backed publish/subscribe wrapper
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// Connect establishes the NATS connection with sane reconnect defaults
func Connect(url string) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("eventbus: disconnected from NATS", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("eventbus: reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("get JetStream context: %w", err)
	}

	return &Bus{conn: conn, js: js}, nil
}

// Publish marshals data into an Event and publishes it on the subject
func (b *Bus) Publish(ctx context.Context, subject string, eventID string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	event := Event{
		ID:         eventID,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	if _, err := b.js.Publish(subject, raw, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a durable queue subscription so that each event is
// delivered to one member of the group and redelivered on handler failure.
func (b *Bus) Subscribe(ctx context.Context, subject, durable string, handler Handler) error {
	sub, err := b.js.QueueSubscribe(subject, durable, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("eventbus: dropping malformed event",
				zap.String("subject", subject),
				zap.Error(err),
			)
			_ = msg.Term()
			return
		}

		if err := handler(ctx, &event); err != nil {
			logger.Error("eventbus: handler failed, message will be redelivered",
				zap.String("subject", subject),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, nats.Durable(durable), nats.ManualAck())
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	b.subs = append(b.subs, sub)
	return nil
}

// Close drains subscriptions and closes the connection
func (b *Bus) Close() {
	for _, sub := range b.subs {
		_ = sub.Drain()
	}
	if b.conn != nil {
		_ = b.conn.Drain()
	}
}
