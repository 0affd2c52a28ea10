package application

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

// LogSink writes every committed audit entry to a zerolog logger.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(_ context.Context, entry domain.AuditLog) {
	ev := s.log.Info().
		Str("audit_id", entry.ID).
		Str("action", string(entry.Action)).
		Str("table", entry.TableName).
		Str("record_id", entry.RecordID)
	if entry.UserID != nil {
		ev = ev.Str("actor", *entry.UserID)
	}
	if entry.IPAddress != "" {
		ev = ev.Str("ip", entry.IPAddress)
	}
	ev.Time("at", entry.CreatedAt).Msg("audit")
}
