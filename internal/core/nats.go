// AngelaMos | 2026
// nats.go

package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carterperez-dev/dentflow/internal/config"
)

type NATS struct {
	Conn *nats.Conn
}

func NewNATS(cfg config.NATSConfig, name string, logger *slog.Logger) (*NATS, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATS{Conn: nc}, nil
}

func (n *NATS) Ping(ctx context.Context) error {
	if !n.Conn.IsConnected() {
		return fmt.Errorf("nats: %s", n.Conn.Status())
	}
	return n.Conn.FlushWithContext(ctx)
}

// Close drains pending messages before closing the connection.
func (n *NATS) Close() error {
	if err := n.Conn.Drain(); err != nil {
		n.Conn.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}
