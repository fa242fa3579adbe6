package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "pg_exclusion", err: &pgconn.PgError{Code: "23P01"}, want: "exclusion_violation"},
		{name: "pg_unique", err: &pgconn.PgError{Code: "23505"}, want: "unique_violation"},
		{name: "pg_other", err: &pgconn.PgError{Code: "42P01"}, want: "pg_42P01"},
		{name: "mongo_dup", err: errors.New("E11000 duplicate key error collection"), want: "unique_violation"},
		{name: "sqlite_check", err: errors.New("CHECK constraint failed: lectures"), want: "constraint_violation"},
		{name: "timeout", err: errors.New("context deadline exceeded"), want: "timeout"},
		{name: "unknown", err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestObserveDBCountsErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("lectures.create", func() error { return nil })
	_ = p.ObserveDB("lectures.create", func() error { return &pgconn.PgError{Code: "23P01"} })

	got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("lectures.create", "exclusion_violation"))
	if got != 1 {
		t.Fatalf("expected 1 exclusion error, got %v", got)
	}

	var nilProm *Prom
	called := false
	_ = nilProm.ObserveDB("noop", func() error { called = true; return nil })
	if !called {
		t.Fatalf("nil Prom must still run fn")
	}
}

func TestObserveAssignmentFeedsStats(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveAssignment("assigned", time.Millisecond)
	p.ObserveAssignment("conflict", time.Millisecond)
	p.ObserveAssignment("conflict", time.Millisecond)
	p.ObserveAssignment("invalid", time.Millisecond)
	p.ObserveLockWait(2 * time.Millisecond)
	p.ObserveLockWait(4 * time.Millisecond)

	s := p.Stats()
	if s.Assigned != 1 || s.Conflicts != 2 || s.Rejected != 1 || s.Failed != 0 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.LockWaits != 2 || s.MaxLockWait != 4*time.Millisecond || s.AverageLockWait != 3*time.Millisecond {
		t.Fatalf("unexpected lock stats: %+v", s)
	}

	if got := testutil.ToFloat64(p.AssignmentsTotal.WithLabelValues("conflict")); got != 2 {
		t.Fatalf("conflict counter = %v", got)
	}
}
