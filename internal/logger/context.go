package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds operation-scoped logging context for a single scan,
// backup, or GC run.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	BackupSet string    // Backup set name
	Snapshot  string    // Snapshot name, once one is being created
	Pass      int       // Scanner pass number, 0 outside a scan
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a backup set.
func NewLogContext(backupSet string) *LogContext {
	return &LogContext{
		BackupSet: backupSet,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		BackupSet: lc.BackupSet,
		Snapshot:  lc.Snapshot,
		Pass:      lc.Pass,
		StartTime: lc.StartTime,
	}
}

// WithSnapshot returns a copy with the snapshot name set
func (lc *LogContext) WithSnapshot(snapshot string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Snapshot = snapshot
	}
	return clone
}

// WithPass returns a copy with the scanner pass number set
func (lc *LogContext) WithPass(pass int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Pass = pass
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
