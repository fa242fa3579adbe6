package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Assign creates a lecture for an instructor. Checks run cheapest first and the
// first failure wins: role, presence, interval, instructor, course, conflict.
// Nothing is persisted unless every check passes.
func (s *Service) Assign(ctx context.Context, callerRole string, req lecture.AssignRequest) (l lecture.Lecture, err error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "scheduling.Assign")
	defer func() {
		s.metrics.ObserveAssignment(assignmentResult(err), time.Since(start))
		if err != nil && assignmentResult(err) == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, "assign failed")
		}
		span.End()
	}()

	if err = RequireAdmin(callerRole); err != nil {
		return
	}

	req = req.Normalize()

	if err = s.validateRequest(req); err != nil {
		return
	}

	iv, err := lecture.ParseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return
	}

	span.SetAttributes(
		attribute.String("lecture.course_id", req.CourseID),
		attribute.String("lecture.instructor_id", req.InstructorID),
	)

	instructor, err := s.dir.GetUser(ctx, req.InstructorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			err = lecture.ErrInstructorNotFound
			return
		}
		err = s.infraError(ctx, "assign.get_instructor", err, "instructor_id", req.InstructorID)
		return
	}
	if !instructor.IsInstructor() {
		err = lecture.ErrInstructorNotFound
		return
	}

	exists, err := s.dir.CourseExists(ctx, req.CourseID)
	if err != nil {
		err = s.infraError(ctx, "assign.course_exists", err, "course_id", req.CourseID)
		return
	}
	if !exists {
		err = lecture.ErrCourseNotFound
		return
	}

	// hold the instructor's token across check and write
	lockStart := time.Now()
	unlock, err := s.locker.Lock(ctx, "instructor:"+req.InstructorID)
	s.metrics.ObserveLockWait(time.Since(lockStart))
	if err != nil {
		err = s.infraError(ctx, "assign.lock", err, "instructor_id", req.InstructorID)
		return
	}
	defer unlock()

	busy, err := s.conflicts.HasConflict(ctx, req.InstructorID, iv)
	if err != nil {
		err = s.infraError(ctx, "assign.conflict_check", err, "instructor_id", req.InstructorID)
		return
	}
	if busy {
		err = lecture.ErrConflict
		return
	}

	l, err = s.lectures.Create(ctx, lecture.New(req.CourseID, req.InstructorID, req.Topic, iv))
	if err != nil {
		switch {
		case errors.Is(err, lecture.ErrConflict),
			errors.Is(err, lecture.ErrCourseNotFound),
			errors.Is(err, lecture.ErrInstructorNotFound),
			errors.Is(err, lecture.ErrInvalidInput):
			return lecture.Lecture{}, err
		}
		err = s.infraError(ctx, "assign.create", err,
			"instructor_id", req.InstructorID, "course_id", req.CourseID)
		return lecture.Lecture{}, err
	}

	s.log.InfoContext(ctx, "lecture_assigned",
		"lecture_id", l.ID,
		"course_id", l.CourseID,
		"instructor_id", l.InstructorID,
		"start_time", l.StartTime,
		"end_time", l.EndTime,
	)

	return l, nil
}

func (s *Service) validateRequest(req lecture.AssignRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &lecture.ValidationError{Fields: validation.FromValidator(verrs)}
	}

	return &lecture.ValidationError{Reason: err.Error()}
}

// infraError logs storage failures with context and returns a wrapped error the
// HTTP layer reports generically.
func (s *Service) infraError(ctx context.Context, op string, err error, attrs ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.log.WarnContext(ctx, "scheduling_aborted", append([]any{"op", op, "err", err}, attrs...)...)
	} else {
		s.log.ErrorContext(ctx, "scheduling_infra_error", append([]any{"op", op, "err", err}, attrs...)...)
	}
	return fmt.Errorf("scheduling: %s: %w", op, err)
}

func assignmentResult(err error) string {
	switch {
	case err == nil:
		return "assigned"
	case errors.Is(err, lecture.ErrForbidden):
		return "forbidden"
	case errors.Is(err, lecture.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, lecture.ErrInstructorNotFound), errors.Is(err, lecture.ErrCourseNotFound):
		return "not_found"
	case errors.Is(err, lecture.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
