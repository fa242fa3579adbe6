// Package sqlite is the single-file backend for small deployments. All access
// goes through one connection, so a transaction's overlap re-check and insert
// cannot interleave with another writer.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/observability"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

type Store struct {
	db   *sql.DB
	prom *observability.Prom
	sb   squirrel.StatementBuilderType
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string, prom *observability.Prom) (*Store, error) {
	if path == "" {
		path = "lecturehub.db"
	}

	d, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(1)
	d.SetConnMaxLifetime(0)

	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}

	// journal_mode may not be supported for in-memory databases
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)

	if _, err := d.Exec(schema); err != nil {
		_ = d.Close()
		return nil, err
	}

	return &Store{db: d, prom: prom, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}, nil
}

func dsn(path string) string {
	params := "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	if path == ":memory:" {
		return "file::memory:?" + params
	}
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return "file:" + path + "?" + params
}

func (s *Store) observe(op string, fn func() error) error {
	return s.prom.ObserveDB(op, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.observe("ping", func() error { return s.db.PingContext(ctx) })
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Timestamps are stored as unix microseconds so comparisons are integer
// compares. Microseconds cover every year RFC3339 can express; nanoseconds
// overflow int64 after 2262.

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(n int64) time.Time {
	return time.UnixMicro(n).UTC()
}

func constraintCode(err error) (sqlite3.ErrNoExtended, bool) {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.Code == sqlite3.ErrConstraint {
		return sqErr.ExtendedCode, true
	}
	return 0, false
}
