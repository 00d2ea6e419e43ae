// Package notify publishes build completion events to NATS so external
// consumers (deploy hooks, dashboards) can react to rebuilds in watch mode.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitegen.builds"

// BuildEvent is the published payload for one completed run.
type BuildEvent struct {
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Rendered   int       `json:"rendered"`
	Skipped    int       `json:"skipped"`
	Deleted    int       `json:"deleted"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
	Partial    bool      `json:"partial"`
}

// Publisher is a thin NATS connection wrapper. A nil *Publisher is a valid
// no-op publisher.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("sitegen"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	p := &Publisher{
		conn:    conn,
		subject: subject,
		logger:  slog.Default(),
	}
	p.logger.Info("Build event publisher connected", "url", url, "subject", subject)
	return p, nil
}

// WithLogger sets a custom logger.
func (p *Publisher) WithLogger(logger *slog.Logger) *Publisher {
	p.logger = logger
	return p
}

// Publish sends one build event. Errors are returned, not fatal; the caller
// decides whether a lost notification matters.
func (p *Publisher) Publish(event BuildEvent) error {
	if p == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}

	p.logger.Debug("Published build event",
		"run_id", event.RunID, "rendered", event.Rendered, "failed", event.Failed)
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}
