// Package scheduling assigns lectures to instructors without double booking and
// serves the enriched lecture listings.
package scheduling

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/locks"
	"github.com/geocoder89/lecturehub/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/geocoder89/lecturehub/internal/scheduling"

// Directory is the read-only view of users and courses.
type Directory interface {
	GetUser(ctx context.Context, id string) (user.User, error)
	CourseExists(ctx context.Context, id string) (bool, error)
}

type LectureStore interface {
	OverlapFinder
	// Create persists l. It must re-check overlap atomically with the insert and
	// return lecture.ErrConflict if another writer got there first.
	Create(ctx context.Context, l lecture.Lecture) (lecture.Lecture, error)
	List(ctx context.Context, filter lecture.ListFilter) ([]lecture.Enriched, error)
}

type Metrics interface {
	ObserveAssignment(result string, d time.Duration)
	ObserveLockWait(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAssignment(string, time.Duration) {}
func (noopMetrics) ObserveLockWait(time.Duration)           {}

type Service struct {
	dir       Directory
	lectures  LectureStore
	conflicts *ConflictDetector
	locker    locks.Locker
	validate  *validator.Validate
	metrics   Metrics
	log       *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLocker(l locks.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(dir Directory, lectures LectureStore, opts ...Option) *Service {
	s := &Service{
		dir:       dir,
		lectures:  lectures,
		conflicts: NewConflictDetector(lectures),
		locker:    locks.NewKeyedMutex(),
		validate:  validation.New(),
		metrics:   noopMetrics{},
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RequireAdmin is the capability check for admin-only lecture operations.
func RequireAdmin(callerRole string) error {
	if callerRole != user.RoleAdmin {
		return lecture.ErrForbidden
	}
	return nil
}
