package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "ragchat"

// NATSPublisher forwards events to NATS subjects named
// <prefix>.session.<event type>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to url. The connection keeps retrying in the
// background when the server is not reachable yet.
func NewNATSPublisher(ctx context.Context, url, token, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	opts := []nats.Option{
		nats.Name("rag-file-chatbot"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, prefix: strings.TrimSuffix(prefix, "."), logger: logger}, nil
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t Type) string {
	return Subject(p.prefix, t)
}

// Subject builds the NATS subject for an event type under prefix.
func Subject(prefix string, t Type) string {
	return prefix + ".session." + string(t)
}

// Publish marshals e as JSON. Failures are logged and dropped.
func (p *NATSPublisher) Publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("marshal event", "type", e.Type, "error", err)
		return
	}
	if err := p.conn.Publish(p.Subject(e.Type), payload); err != nil {
		p.logger.Warn("publish event", "type", e.Type, "session", e.SessionID, "error", err)
	}
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
