package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ancientlore/docserve/logattr"
)

// Event is the optional payload of an update message.
type Event struct {
	Version string   `json:"version,omitempty"`
	Slugs   []string `json:"slugs,omitempty"`
}

// HandleMsg invalidates the cache for an update message. A malformed payload
// still invalidates, since the message itself announces a change.
func (n *Notifier) HandleMsg(msg *nats.Msg) {
	ctx := context.Background()
	var ev Event
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			n.log.WarnContext(ctx, "Malformed update message", slog.String("subject", msg.Subject), logattr.Error(err))
		}
	}
	n.Invalidate(ctx, "nats", logattr.Version(ev.Version), logattr.Count(len(ev.Slugs)))
}

// Subscription is a live NATS subscription.
type Subscription struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

// Subscribe connects to the NATS server at url and invalidates on every message
// published to subject.
func (n *Notifier) Subscribe(url, subject string) (*Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("docserve"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			n.log.Warn("NATS disconnected", logattr.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			n.log.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("Subscribe: %w", err)
	}
	sub, err := conn.Subscribe(subject, n.HandleMsg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("Subscribe: %w", err)
	}
	n.log.Info("Listening for content updates", slog.String("url", url), slog.String("subject", subject))
	return &Subscription{conn: conn, sub: sub}, nil
}

// Close drains the subscription and closes the connection.
func (s *Subscription) Close() error {
	if err := s.sub.Drain(); err != nil {
		s.conn.Close()
		return fmt.Errorf("Close: %w", err)
	}
	return s.conn.Drain()
}
