package scheduling

import (
	"context"
	"strings"

	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ByCourse lists a course's lectures joined with the course. Admin only.
func (s *Service) ByCourse(ctx context.Context, callerRole, courseID string) ([]lecture.Enriched, error) {
	if err := RequireAdmin(callerRole); err != nil {
		return nil, err
	}

	courseID, err := parseID("courseId", courseID)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, "list.by_course", lecture.ByCourse(courseID), attribute.String("lecture.course_id", courseID))
}

// All lists every lecture. Admin only.
func (s *Service) All(ctx context.Context, callerRole string) ([]lecture.Enriched, error) {
	if err := RequireAdmin(callerRole); err != nil {
		return nil, err
	}

	return s.list(ctx, "list.all", lecture.ListFilter{})
}

// ByInstructor is open to any authenticated caller so instructors can read their own schedule.
func (s *Service) ByInstructor(ctx context.Context, instructorID string) ([]lecture.Enriched, error) {
	instructorID, err := parseID("instructorId", instructorID)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, "list.by_instructor", lecture.ByInstructor(instructorID), attribute.String("lecture.instructor_id", instructorID))
}

func (s *Service) list(ctx context.Context, op string, filter lecture.ListFilter, attrs ...attribute.KeyValue) ([]lecture.Enriched, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling."+op)
	defer span.End()
	span.SetAttributes(attrs...)

	items, err := s.lectures.List(ctx, filter)
	if err != nil {
		logAttrs := make([]any, 0, len(attrs)*2)
		for _, a := range attrs {
			logAttrs = append(logAttrs, string(a.Key), a.Value.Emit())
		}
		span.RecordError(err)
		return nil, s.infraError(ctx, op, err, logAttrs...)
	}

	if len(items) == 0 {
		return nil, lecture.ErrNoLectures
	}

	return items, nil
}

func parseID(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if _, err := uuid.Parse(raw); err != nil {
		return "", &lecture.ValidationError{Reason: field + " must be a valid UUID"}
	}

	return raw, nil
}
