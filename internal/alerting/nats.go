package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// NATSSink publishes alerts to a NATS subject per severity:
// <prefix>.<severity>, e.g. analyzer.alerts.critical.
type NATSSink struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, subjectPrefix string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("telhawk-analyzer"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	if subjectPrefix == "" {
		subjectPrefix = "analyzer.alerts"
	}
	return &NATSSink{conn: conn, subjectPrefix: subjectPrefix}, nil
}

// PostAlert publishes one alert. The context deadline bounds the flush.
func (s *NATSSink) PostAlert(ctx context.Context, alert *models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", s.subjectPrefix, alert.Severity)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		return s.conn.FlushTimeout(time.Until(deadline))
	}
	return s.conn.Flush()
}

// Close drains the connection.
func (s *NATSSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
