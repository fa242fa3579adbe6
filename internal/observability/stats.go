package observability

import (
	"sync/atomic"
	"time"
)

// AssignmentStats counts assignment outcomes for the process lifetime.
type AssignmentStats struct {
	assigned  atomic.Uint64
	conflicts atomic.Uint64
	rejected  atomic.Uint64 // invalid, forbidden, not_found
	failed    atomic.Uint64

	// lock wait stats (nanoseconds)
	lockWaitCount atomic.Uint64
	lockWaitTotal atomic.Int64
	lockWaitMax   atomic.Int64
}

func NewAssignmentStats() *AssignmentStats {
	return &AssignmentStats{}
}

func (s *AssignmentStats) ObserveAssignment(result string, _ time.Duration) {
	switch result {
	case "assigned":
		s.assigned.Add(1)
	case "conflict":
		s.conflicts.Add(1)
	case "error":
		s.failed.Add(1)
	default:
		s.rejected.Add(1)
	}
}

func (s *AssignmentStats) ObserveLockWait(d time.Duration) {
	ns := d.Nanoseconds()
	s.lockWaitCount.Add(1)
	s.lockWaitTotal.Add(ns)

	for {
		curr := s.lockWaitMax.Load()
		if ns <= curr {
			return
		}
		if s.lockWaitMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type AssignmentStatsSnapshot struct {
	Assigned        uint64        `json:"assigned"`
	Conflicts       uint64        `json:"conflicts"`
	Rejected        uint64        `json:"rejected"`
	Failed          uint64        `json:"failed"`
	LockWaits       uint64        `json:"lockWaits"`
	AverageLockWait time.Duration `json:"averageLockWaitNs"`
	MaxLockWait     time.Duration `json:"maxLockWaitNs"`
}

func (s *AssignmentStats) Snapshot() AssignmentStatsSnapshot {
	count := s.lockWaitCount.Load()
	total := s.lockWaitTotal.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return AssignmentStatsSnapshot{
		Assigned:        s.assigned.Load(),
		Conflicts:       s.conflicts.Load(),
		Rejected:        s.rejected.Load(),
		Failed:          s.failed.Load(),
		LockWaits:       count,
		AverageLockWait: avg,
		MaxLockWait:     time.Duration(s.lockWaitMax.Load()),
	}
}
