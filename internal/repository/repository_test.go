package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/maxviazov/agency-travels-service/internal/config"
)

func TestMapPgError(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, ErrAlreadyExists},
		{"fk", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, ErrConflict},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, ErrConflict},
		{"bad date", fmt.Errorf("query: %w", &pgconn.PgError{Code: pgerrcode.InvalidDatetimeFormat}), ErrBadQuery},
		{"date overflow", &pgconn.PgError{Code: pgerrcode.DatetimeFieldOverflow}, ErrBadQuery},
		{"passthrough", boom, boom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapPgError(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestOffsetForPage(t *testing.T) {
	assert.Equal(t, Page{Limit: 15, Offset: 0}, OffsetForPage(1, 15))
	assert.Equal(t, Page{Limit: 15, Offset: 30}, OffsetForPage(3, 15))
	assert.Equal(t, Page{Limit: 15, Offset: 0}, OffsetForPage(0, 15))
}

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.PostgresConfig{
		Host: "db", Port: 5433, User: "app", Password: "p@ss/word", DBName: "travels", SSLMode: "disable",
	})
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5433/travels?sslmode=disable", dsn)

	assert.Equal(t, "postgres://localhost:5432/x", BuildDSN(config.PostgresConfig{Host: "localhost", Port: 5432, DBName: "x"}))
}

func TestTraceLevel(t *testing.T) {
	assert.Equal(t, tracelog.LogLevelDebug, traceLevel(zerolog.DebugLevel))
	assert.Equal(t, tracelog.LogLevelInfo, traceLevel(zerolog.InfoLevel))
	assert.Equal(t, tracelog.LogLevelError, traceLevel(zerolog.ErrorLevel))
}

func TestPgxLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newPgxLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

	l.Log(context.Background(), tracelog.LogLevelTrace, "Query", map[string]any{"sql": "SELECT 1", "args": []any{1}, "time": "1ms"})
	out := buf.String()
	assert.Contains(t, out, `"component":"pgx"`)
	assert.Contains(t, out, `"sql":"SELECT 1"`)
	assert.Contains(t, out, `"message":"Query"`)

	buf.Reset()
	l.Log(context.Background(), tracelog.LogLevelNone, "ignored", nil)
	assert.Empty(t, buf.String())
}
