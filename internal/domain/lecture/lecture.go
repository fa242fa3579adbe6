package lecture

import (
	"strings"
	"time"

	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/google/uuid"
)

type Lecture struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	InstructorID string    `json:"instructorId"`
	Topic        string    `json:"topic"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (l Lecture) Interval() Interval {
	return Interval{Start: l.StartTime, End: l.EndTime}
}

// Enriched is a lecture joined with its course at read time.
// Course is nil when the referenced course no longer exists.
type Enriched struct {
	Lecture
	Course *course.Course `json:"course"`
}

// AssignRequest is the raw assignment payload. Times stay strings until the
// service parses them so every failure maps to the same error kind.
type AssignRequest struct {
	CourseID     string `json:"courseId" validate:"required,uuid"`
	InstructorID string `json:"instructorId" validate:"required,uuid"`
	Topic        string `json:"topic" validate:"required,max=200"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
}

func (r AssignRequest) Normalize() AssignRequest {
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.InstructorID = strings.TrimSpace(r.InstructorID)
	r.Topic = strings.TrimSpace(r.Topic)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	return r
}

// with pointers if optional, it will be nil
type ListFilter struct {
	CourseID     *string
	InstructorID *string
}

func ByCourse(courseID string) ListFilter {
	return ListFilter{CourseID: &courseID}
}

func ByInstructor(instructorID string) ListFilter {
	return ListFilter{InstructorID: &instructorID}
}

// Matches reports whether l passes the filter. Used by stores that filter in memory.
func (f ListFilter) Matches(l Lecture) bool {
	if f.CourseID != nil && l.CourseID != *f.CourseID {
		return false
	}
	if f.InstructorID != nil && l.InstructorID != *f.InstructorID {
		return false
	}
	return true
}

func New(courseID, instructorID, topic string, iv Interval) Lecture {
	now := time.Now().UTC()

	return Lecture{
		ID:           uuid.NewString(),
		CourseID:     courseID,
		InstructorID: instructorID,
		Topic:        topic,
		StartTime:    iv.Start.UTC(),
		EndTime:      iv.End.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
