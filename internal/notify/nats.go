// Package notify publishes triggered alerts to NATS so that downstream
// consumers (pagers, dashboards, chat bridges) can react to them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"jpx_compliance/internal/alerts"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "jpx.alerts"

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Publisher sends alerts to subjects of the form <prefix>.<priority>.
type Publisher struct {
	conn   conn
	prefix string
}

// Connect dials the NATS server at url.
func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("jpx-compliance"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	log.Printf("Connected to NATS at %s", nc.ConnectedUrl())
	return newPublisher(nc, prefix), nil
}

func newPublisher(c conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: c, prefix: prefix}
}

// Subject returns the subject an alert is published on.
func (p *Publisher) Subject(a *alerts.Triggered) string {
	return p.prefix + "." + string(a.Priority)
}

// PublishAlerts publishes every unacknowledged alert as JSON and flushes.
// Returns the number published.
func (p *Publisher) PublishAlerts(ctx context.Context, list []alerts.Triggered) (int, error) {
	n := 0
	for i := range list {
		a := &list[i]
		if a.Acknowledged {
			continue
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}

		data, err := json.Marshal(a)
		if err != nil {
			return n, fmt.Errorf("marshal alert %s: %w", a.ID, err)
		}
		if err := p.conn.Publish(p.Subject(a), data); err != nil {
			return n, fmt.Errorf("publish alert %s: %w", a.ID, err)
		}
		n++
	}

	if n == 0 {
		return 0, nil
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return n, fmt.Errorf("flush: %w", err)
	}
	return n, nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
