package audit

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// LogrusLogger writes audit entries as structured log lines.
type LogrusLogger struct {
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewLogrusLogger constructs an audit logger on top of logger.
func NewLogrusLogger(logger logrus.FieldLogger) *LogrusLogger {
	if logger == nil {
		return nil
	}
	return &LogrusLogger{logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Log writes an audit entry.
func (l *LogrusLogger) Log(ctx context.Context, entry Entry) error {
	if l == nil || l.logger == nil {
		return errors.New("audit logger: nil logger")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}

	fields := logrus.Fields{
		"audit_id":      entry.ID,
		"actor":         entry.Actor,
		"role":          entry.Role,
		"action":        entry.Action,
		"resource_type": entry.ResourceType,
		"resource_id":   entry.ResourceID,
		"ip":            entry.IP,
		"user_agent":    entry.UserAgent,
		"created_at":    entry.CreatedAt.Format(time.RFC3339Nano),
	}
	if len(entry.Metadata) > 0 {
		fields["metadata"] = string(entry.Metadata)
		fields["payload_digest"] = entry.PayloadDigest
	}
	l.logger.WithFields(fields).Info("audit")
	return nil
}
