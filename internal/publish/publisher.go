// Package publish forwards scan findings to NATS so downstream consumers
// (SIEM pipelines, ticketing bots) can react to them.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

const connectTimeout = 10 * time.Second

// Publisher publishes findings from completed scans to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

func New(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Timeout(connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}

	slog.Info("nats publisher connected", "url", url, "subject", subject)
	return &Publisher{conn: conn, subject: subject}, nil
}

// PublishResult publishes each finding of a completed scan as its own
// message. Individual publish failures are logged and skipped so one bad
// message never blocks the rest of the batch.
func (p *Publisher) PublishResult(ctx context.Context, res *model.ScanResult) error {
	if p.conn == nil || !p.conn.IsConnected() {
		return fmt.Errorf("nats connection not available")
	}

	published := 0
	for i := range res.Findings {
		f := &res.Findings[i]
		if err := p.publishFinding(res.RunID, f); err != nil {
			slog.Warn("publish finding failed", "rule_id", f.RuleID, "path", f.FilePath, "error", err)
			continue
		}
		published++
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing nats connection: %w", err)
	}

	slog.Info("published findings", "run_id", res.RunID, "published", published, "total", len(res.Findings))
	return nil
}

func (p *Publisher) publishFinding(runID string, f *model.Finding) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal finding: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set("x-run-id", runID)
	msg.Header.Set("x-rule-id", f.RuleID)
	msg.Header.Set("x-severity", string(f.Severity))

	return p.conn.PublishMsg(msg)
}

// Close drains the connection, letting buffered messages flush first.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}
