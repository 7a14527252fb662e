// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/coursehub/internal/app/store/audit"
	"github.com/dalemusser/coursehub/internal/app/workflow"
	"go.uber.org/zap"
)

// Destinations for audit events.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Transitions controls where session and seance transitions are recorded.
	Transitions string
}

// Logger records audit events to MongoDB (via audit.Store) and to
// structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if config.Transitions == "" {
		config.Transitions = All
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("entity", event.Entity),
		zap.String("entity_id", event.EntityID.Hex()),
		zap.String("event_type", event.EventType),
		zap.String("from", event.From),
		zap.String("to", event.To),
	}
	if event.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", event.CorrelationID))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.config.Transitions
	if setting == Off {
		return
	}
	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// Transition records a committed session or seance transition.
func (l *Logger) Transition(ctx context.Context, rec workflow.TransitionRecord) {
	l.Log(ctx, audit.Event{
		Entity:        rec.Entity,
		EntityID:      rec.ID,
		EventType:     rec.Event,
		From:          rec.From,
		To:            rec.To,
		CorrelationID: rec.CorrelationID,
	})
}

var _ workflow.Auditor = (*Logger)(nil)
