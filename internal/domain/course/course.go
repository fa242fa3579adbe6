package course

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultLevel = "beginner"

var ErrNotFound = errors.New("course not found")

// ErrInUse is returned when deleting a course that lectures still reference.
var ErrInUse = errors.New("course has lectures")

type Course struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Poster      string    `json:"poster"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Mode        string    `json:"mode"`
	Level       string    `json:"level"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateCourseRequest struct {
	Poster      string `json:"poster" binding:"required,max=500"`
	Title       string `json:"title" binding:"required,min=3,max=120"`
	Description string `json:"description" binding:"required,max=2000"`
	Mode        string `json:"mode" binding:"required,max=40"`
	Level       string `json:"level" binding:"omitempty,max=40"`
	Language    string `json:"language" binding:"required,max=40"`
}

func NewFromCreateRequest(ownerID string, req CreateCourseRequest) Course {
	now := time.Now().UTC()

	level := strings.TrimSpace(req.Level)
	if level == "" {
		level = DefaultLevel
	}

	return Course{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Poster:      req.Poster,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Mode:        req.Mode,
		Level:       level,
		Language:    req.Language,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateCourseRequest is a partial update. Nil fields are left unchanged and
// fields outside this struct (owner, timestamps) are never writable.
type UpdateCourseRequest struct {
	Poster      *string `json:"poster" binding:"omitempty,min=1,max=500"`
	Title       *string `json:"title" binding:"omitempty,min=3,max=120"`
	Description *string `json:"description" binding:"omitempty,min=1,max=2000"`
	Mode        *string `json:"mode" binding:"omitempty,min=1,max=40"`
	Level       *string `json:"level" binding:"omitempty,min=1,max=40"`
	Language    *string `json:"language" binding:"omitempty,min=1,max=40"`
}

func (r UpdateCourseRequest) Empty() bool {
	return r.Poster == nil && r.Title == nil && r.Description == nil &&
		r.Mode == nil && r.Level == nil && r.Language == nil
}

// Normalize trims the fields Create trims so both paths store the same shape.
func (r UpdateCourseRequest) Normalize() UpdateCourseRequest {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	if r.Level != nil {
		l := strings.TrimSpace(*r.Level)
		r.Level = &l
	}
	return r
}

// Apply returns c with the set fields of r copied over. UpdatedAt is the
// caller's concern.
func (r UpdateCourseRequest) Apply(c Course) Course {
	if r.Poster != nil {
		c.Poster = *r.Poster
	}
	if r.Title != nil {
		c.Title = *r.Title
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.Mode != nil {
		c.Mode = *r.Mode
	}
	if r.Level != nil {
		c.Level = *r.Level
	}
	if r.Language != nil {
		c.Language = *r.Language
	}
	return c
}
