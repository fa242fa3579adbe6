// Package repo names the storage contract every backend (memory, postgres,
// sqlite, mongo) satisfies.
package repo

import (
	"context"

	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
)

type Users interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	// UpdateUser applies a normalized partial update; ErrNotFound or ErrEmailTaken.
	UpdateUser(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	// SearchUsers matches a case-insensitive name prefix.
	SearchUsers(ctx context.Context, namePrefix string) ([]user.User, error)
}

type Courses interface {
	CreateCourse(ctx context.Context, c course.Course) (course.Course, error)
	GetCourse(ctx context.Context, id string) (course.Course, error)
	ListCourses(ctx context.Context) ([]course.Course, error)
	CourseExists(ctx context.Context, id string) (bool, error)
	UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error)
	// DeleteCourse returns course.ErrInUse while any lecture references the course.
	DeleteCourse(ctx context.Context, id string) error
}

type Lectures interface {
	HasOverlap(ctx context.Context, instructorID string, iv lecture.Interval) (bool, error)
	Create(ctx context.Context, l lecture.Lecture) (lecture.Lecture, error)
	List(ctx context.Context, filter lecture.ListFilter) ([]lecture.Enriched, error)
}

type Store interface {
	Users
	Courses
	Lectures
	Ping(ctx context.Context) error
	Close() error
}
