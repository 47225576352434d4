package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// pgxLogger adapts zerolog.Logger to pgx's tracelog interface.
type pgxLogger struct {
	logger zerolog.Logger
}

func newPgxLogger(logger zerolog.Logger) *pgxLogger {
	l := logger.With().Str("component", "pgx").Logger()
	return &pgxLogger{logger: l}
}

// sensitiveColumns mark statements whose arguments must never reach the log.
var sensitiveColumns = []string{"password_hash", "token"}

// Log implements tracelog.Logger. SQL and args are only attached at trace level,
// and args are dropped for statements that touch credentials or invitation tokens.
func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if level == tracelog.LogLevelNone {
		return
	}

	var event *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		event = l.logger.Info().Str("pgx_log_level", level.String())
	}

	sql, _ := data["sql"].(string)
	delete(data, "sql")
	args, hasArgs := data["args"]
	delete(data, "args")

	if level == tracelog.LogLevelTrace {
		if sql != "" {
			event = event.Str("sql", compactSQL(sql))
		}
		if hasArgs && !isSensitive(sql) {
			event = event.Interface("args", args)
		}
	}
	if d, ok := data["time"].(time.Duration); ok {
		event = event.Dur("took", d)
		delete(data, "time")
	}
	if len(data) > 0 {
		event = event.Fields(data)
	}
	event.Msg(msg)
}

func isSensitive(sql string) bool {
	lower := strings.ToLower(sql)
	for _, col := range sensitiveColumns {
		if strings.Contains(lower, col) {
			return true
		}
	}
	return false
}

// compactSQL collapses the indentation of multi-line statements into single spaces.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
