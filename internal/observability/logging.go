// Package observability provides logging, metrics, and tracing helpers shared by repositories, hubs and provider clients.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// GlobalLogger backs RepoLogger and WSLogger. middleware swaps in its
// context-aware logger at init so request ids reach repository lines too.
var GlobalLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger replaces GlobalLogger. A nil logger is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// Mutation and connection logs can be silenced per kind, e.g. by load tests.
var (
	RepoLogging = true
	WSLogging   = true
)

func fieldAttrs(fields map[string]any) []any {
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// RepoLogger writes debug lines for writes to one table and error lines for
// failed queries.
type RepoLogger struct {
	table string
}

// NewRepoLogger returns a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) write(ctx context.Context, op string, fields map[string]any) {
	if !RepoLogging {
		return
	}
	GlobalLogger.With("table", l.table).DebugContext(ctx, l.table+" "+op, fieldAttrs(fields)...)
}

// LogCreate records an insert.
func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) { l.write(ctx, "created", fields) }

// LogUpdate records an update.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) { l.write(ctx, "updated", fields) }

// LogError records a failed operation.
func (l *RepoLogger) LogError(ctx context.Context, err error, op string) {
	if !RepoLogging {
		return
	}
	GlobalLogger.ErrorContext(ctx, "query failed", "table", l.table, "operation", op, "error", err)
}

// WSLogger writes connection lifecycle lines for one websocket hub.
type WSLogger struct {
	hub string
}

// NewWSLogger returns a WSLogger for hub.
func NewWSLogger(hub string) *WSLogger {
	return &WSLogger{hub: hub}
}

func (l *WSLogger) write(ctx context.Context, level slog.Level, msg string, userID uint, attrs ...any) {
	if !WSLogging {
		return
	}
	attrs = append([]any{"hub", l.hub, "user_id", userID}, attrs...)
	GlobalLogger.Log(ctx, level, msg, attrs...)
}

// LogConnect records a new listener.
func (l *WSLogger) LogConnect(ctx context.Context, userID uint) {
	l.write(ctx, slog.LevelInfo, "websocket connected", userID)
}

// LogDisconnect records a listener leaving and why.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uint, reason string) {
	l.write(ctx, slog.LevelInfo, "websocket disconnected", userID, "reason", reason)
}

// LogError records a socket failure during eventType.
func (l *WSLogger) LogError(ctx context.Context, userID uint, err error, eventType string) {
	l.write(ctx, slog.LevelWarn, "websocket error", userID, "event_type", eventType, "error", err)
}
