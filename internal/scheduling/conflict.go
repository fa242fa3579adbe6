package scheduling

import (
	"context"
	"strings"

	"github.com/geocoder89/lecturehub/internal/domain/lecture"
)

type OverlapFinder interface {
	// HasOverlap reports whether any stored lecture for instructorID intersects iv,
	// regardless of course.
	HasOverlap(ctx context.Context, instructorID string, iv lecture.Interval) (bool, error)
}

// ConflictDetector answers whether an instructor is free for an interval. It never writes.
type ConflictDetector struct {
	finder OverlapFinder
}

func NewConflictDetector(finder OverlapFinder) *ConflictDetector {
	return &ConflictDetector{finder: finder}
}

func (d *ConflictDetector) HasConflict(ctx context.Context, instructorID string, iv lecture.Interval) (bool, error) {
	if strings.TrimSpace(instructorID) == "" {
		return false, &lecture.ValidationError{Reason: "instructorId is required"}
	}
	if !iv.Valid() {
		return false, &lecture.ValidationError{Reason: "end_time must be after start_time"}
	}

	return d.finder.HasOverlap(ctx, instructorID, iv)
}
