// Package events publishes session activity to an external bus so
// dashboards and downstream collectors can follow runs without polling
// the session store.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/sentinelops/sentinel/internal/session"
)

// Publisher emits session activity. Implementations must be safe for
// use from the run loop's drain goroutine.
type Publisher interface {
	PublishLog(controlID string, entry session.LogEntry) error
	PublishResult(controlID string, result session.AuditResult) error
	PublishStatus(controlID string, status session.Status) error
	Close() error
}

// NoopPublisher drops everything. Used when no bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishLog(string, session.LogEntry) error       { return nil }
func (NoopPublisher) PublishResult(string, session.AuditResult) error { return nil }
func (NoopPublisher) PublishStatus(string, session.Status) error      { return nil }
func (NoopPublisher) Close() error                                    { return nil }

// NATSPublisher publishes JSON payloads to subjects of the form
// <prefix>.session.<controlID>.{log,result,status}.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials the NATS server. An empty prefix defaults to "sentinel".
func Connect(url, prefix string) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = "sentinel"
	}
	conn, err := nats.Connect(url, nats.Name("sentinel-runner"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event bus: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) PublishLog(controlID string, entry session.LogEntry) error {
	return p.publish(fmt.Sprintf("%s.session.%s.log", p.prefix, controlID), entry)
}

func (p *NATSPublisher) PublishResult(controlID string, result session.AuditResult) error {
	return p.publish(fmt.Sprintf("%s.session.%s.result", p.prefix, controlID), result)
}

func (p *NATSPublisher) PublishStatus(controlID string, status session.Status) error {
	return p.publish(fmt.Sprintf("%s.session.%s.status", p.prefix, controlID),
		map[string]string{"status": string(status)})
}

// Close flushes pending messages and drains the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
