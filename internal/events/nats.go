package events

import (
	"context"
	"encoding/json"
	"fmt"

	"loyalty-wallet/internal/model"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConfig holds connection settings for NATSBus.
type NATSConfig struct {
	URL           string
	Token         string
	SubjectPrefix string
}

// NATSBus publishes events as JSON on "<prefix>.<event type>" so other
// processes (a UI gateway, another device agent) can follow identity and sync
// state.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNATSBus connects to the NATS server.
func NewNATSBus(cfg NATSConfig, logger *zap.Logger) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("loyalty-wallet"),
		nats.MaxReconnects(-1),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "wallet"
	}
	return &NATSBus{conn: conn, prefix: prefix, logger: logger}, nil
}

// Subject returns the subject an event type is published on.
func (b *NATSBus) Subject(eventType string) string {
	return b.prefix + "." + eventType
}

// Publish encodes e and publishes it.
func (b *NATSBus) Publish(ctx context.Context, e model.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.conn.Publish(b.Subject(e.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Subscribe receives every event under the prefix.
func (b *NATSBus) Subscribe(h Handler) (func(), error) {
	sub, err := b.conn.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		var e model.Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			b.logger.Warn("dropping malformed event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		h(e)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close drains pending messages and closes the connection.
func (b *NATSBus) Close() error {
	return b.conn.Drain()
}

var _ Bus = (*NATSBus)(nil)
