// Package auditlog persists per-request audit events to the
// backend_logs table. Audit logging is best-effort: a persistence
// failure is logged locally and never propagates to the operation it
// describes.
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xgenlab/xgenaudio/internal/dbstore"
)

// Table is the audit table name.
const Table = "backend_logs"

// TableSchema declares the audit table shape for EnsureTable and
// Reconcile.
func TableSchema() dbstore.Schema {
	return dbstore.Schema{
		{Name: "log_id", Kind: dbstore.KindText},
		{Name: "user_id", Kind: dbstore.KindText},
		{Name: "log_level", Kind: dbstore.KindText},
		{Name: "message", Kind: dbstore.KindText},
		{Name: "function_name", Kind: dbstore.KindText},
		{Name: "api_endpoint", Kind: dbstore.KindText},
		{Name: "request_id", Kind: dbstore.KindText},
		{Name: "metadata", Kind: dbstore.KindText},
		{Name: "created_at", Kind: dbstore.KindTime},
	}
}

// Context identifies the acting user and call site of an audit event.
// It is threaded explicitly by the caller, never recovered from ambient
// state.
type Context struct {
	UserID    string
	Endpoint  string
	Function  string
	RequestID string
}

// LogID derives the event identifier.
func (c Context) LogID() string {
	return fmt.Sprintf("LOG__%s__%s", c.UserID, c.Function)
}

// Logger writes audit events. A nil store disables persistence; events
// still land in the process log.
type Logger struct {
	store *dbstore.Store
	now   func() time.Time
}

// New creates an audit logger over the given store. store may be nil
// when the deployment runs without a database.
func New(store *dbstore.Store) *Logger {
	return &Logger{store: store, now: time.Now}
}

// Success records an INFO event with a SUCCESS prefix.
func (l *Logger) Success(ctx context.Context, ac Context, message string, metadata map[string]any) {
	l.log(ctx, ac, "INFO", "SUCCESS: "+message, metadata)
}

// Info records an INFO event.
func (l *Logger) Info(ctx context.Context, ac Context, message string, metadata map[string]any) {
	l.log(ctx, ac, "INFO", message, metadata)
}

// Warn records a WARN event.
func (l *Logger) Warn(ctx context.Context, ac Context, message string, metadata map[string]any) {
	l.log(ctx, ac, "WARN", message, metadata)
}

// Error records an ERROR event. A non-nil err is appended to the
// message and detailed in the metadata.
func (l *Logger) Error(ctx context.Context, ac Context, message string, err error, metadata map[string]any) {
	if err != nil {
		message = message + ": " + err.Error()
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["error_details"] = err.Error()
	}
	l.log(ctx, ac, "ERROR", message, metadata)
}

// Debug records a DEBUG event.
func (l *Logger) Debug(ctx context.Context, ac Context, message string, metadata map[string]any) {
	l.log(ctx, ac, "DEBUG", message, metadata)
}

func (l *Logger) log(ctx context.Context, ac Context, level, message string, metadata map[string]any) {
	logID := ac.LogID()

	slog.Log(ctx, slogLevel(level), message,
		"log_id", logID,
		"user_id", ac.UserID,
		"endpoint", ac.Endpoint,
		"request_id", ac.RequestID,
	)

	if l.store == nil {
		return
	}

	metaJSON := "{}"
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			slog.Error("Failed to encode audit metadata", "log_id", logID, "error", err)
		} else {
			metaJSON = string(b)
		}
	}

	rec := dbstore.Record{
		"log_id":        logID,
		"user_id":       ac.UserID,
		"log_level":     level,
		"message":       message,
		"function_name": ac.Function,
		"api_endpoint":  ac.Endpoint,
		"request_id":    ac.RequestID,
		"metadata":      metaJSON,
		"created_at":    l.now().UTC(),
	}

	if err := l.store.Insert(ctx, Table, rec); err != nil {
		slog.Error("Failed to persist audit event", "log_id", logID, "error", err)
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
