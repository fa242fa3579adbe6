package lecture

import (
	"errors"
	"strings"

	"github.com/geocoder89/lecturehub/internal/validation"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("admin role required")
	ErrInstructorNotFound = errors.New("instructor not found or not valid")
	ErrCourseNotFound     = errors.New("course not found")
	ErrConflict           = errors.New("instructor already booked")
	// ErrNoLectures signals an empty result set, not a failure.
	ErrNoLectures = errors.New("lecture not found")
)

// ValidationError carries per-field problems. errors.Is(err, ErrInvalidInput) holds for it.
type ValidationError struct {
	Reason string
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error() + ": " + e.Reason
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}

	msg := ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalidField(field, rule, message string) *ValidationError {
	return &ValidationError{
		Fields: []validation.FieldError{{Field: field, Rule: rule, Message: message}},
	}
}
