package repository

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestPgxLogger(buf *bytes.Buffer) *pgxLogger {
	return newPgxLogger(zerolog.New(buf).Level(zerolog.TraceLevel))
}

func TestPgxLogger_TraceIncludesCompactSQLAndArgs(t *testing.T) {
	var buf bytes.Buffer
	l := newTestPgxLogger(&buf)
	l.Log(context.Background(), tracelog.LogLevelTrace, "Query", map[string]any{
		"sql":  "SELECT id\n\t\tFROM projects\n\t\tWHERE company_id = $1",
		"args": []any{int64(7)},
		"time": 3 * time.Millisecond,
	})
	out := buf.String()
	assert.Contains(t, out, `"sql":"SELECT id FROM projects WHERE company_id = $1"`)
	assert.Contains(t, out, `"args":[7]`)
	assert.Contains(t, out, `"took"`)
	assert.Contains(t, out, `"component":"pgx"`)
}

func TestPgxLogger_RedactsCredentialArgs(t *testing.T) {
	var buf bytes.Buffer
	l := newTestPgxLogger(&buf)
	l.Log(context.Background(), tracelog.LogLevelTrace, "Query", map[string]any{
		"sql":  "INSERT INTO users (email, password_hash) VALUES ($1, $2)",
		"args": []any{"a@b.c", "$2a$10$secret"},
	})
	assert.NotContains(t, buf.String(), "secret")
	assert.NotContains(t, buf.String(), `"args"`)
}

func TestPgxLogger_NonTraceDropsSQL(t *testing.T) {
	var buf bytes.Buffer
	l := newTestPgxLogger(&buf)
	l.Log(context.Background(), tracelog.LogLevelError, "Query", map[string]any{
		"sql": "SELECT 1",
		"err": "boom",
	})
	assert.NotContains(t, buf.String(), "SELECT 1")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestPgxLogger_NoneIsSilent(t *testing.T) {
	var buf bytes.Buffer
	newTestPgxLogger(&buf).Log(context.Background(), tracelog.LogLevelNone, "x", map[string]any{})
	assert.Empty(t, buf.String())
}
