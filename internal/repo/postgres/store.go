// Package postgres is the primary storage backend. Overlap safety for lectures
// comes from an advisory lock per instructor inside the insert transaction and
// the lectures_instructor_no_overlap exclusion constraint.
package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/geocoder89/lecturehub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
	prom *observability.Prom
	sb   squirrel.StatementBuilderType
}

func NewStore(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	return &Store{
		pool: pool,
		prom: prom,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (s *Store) observe(op string, fn func() error) error {
	return s.prom.ObserveDB(op, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.observe("ping", func() error { return s.pool.Ping(ctx) })
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
