// AngelaMos | 2026
// broker.go

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Broker relays events over NATS so every replica's Hub sees them.
// Subjects are "<prefix>.<recipientID>".
type Broker struct {
	nc     *nats.Conn
	prefix string
	hub    *Hub
	logger *slog.Logger
	sub    *nats.Subscription
}

func NewBroker(nc *nats.Conn, prefix string, hub *Hub, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = "notifications"
	}
	return &Broker{nc: nc, prefix: prefix, hub: hub, logger: logger}
}

func (b *Broker) Subject(recipientID string) string {
	return b.prefix + "." + recipientID
}

func (b *Broker) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.nc.Publish(b.Subject(e.RecipientID), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", b.Subject(e.RecipientID), err)
	}
	return nil
}

// Start subscribes to every recipient subject and feeds the local hub.
func (b *Broker) Start() error {
	sub, err := b.nc.Subscribe(b.prefix+".*", b.handle)
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	b.sub = sub

	b.logger.Info("notification broker subscribed", "subject", sub.Subject)
	return nil
}

func (b *Broker) handle(msg *nats.Msg) {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		b.logger.Warn("discarding malformed notification event",
			"subject", msg.Subject,
			"error", err,
		)
		return
	}

	if e.RecipientID == "" {
		e.RecipientID = strings.TrimPrefix(msg.Subject, b.prefix+".")
	}

	b.hub.Deliver(e)
}

func (b *Broker) Stop() {
	if b.sub == nil {
		return
	}
	if err := b.sub.Unsubscribe(); err != nil {
		b.logger.Warn("nats unsubscribe failed", "error", err)
	}
}

var (
	_ Publisher = (*Broker)(nil)
	_ Publisher = (*Hub)(nil)
)
