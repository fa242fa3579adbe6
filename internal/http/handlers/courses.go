package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/geocoder89/lecturehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CourseStore interface {
	CreateCourse(ctx context.Context, c course.Course) (course.Course, error)
	GetCourse(ctx context.Context, id string) (course.Course, error)
	ListCourses(ctx context.Context) ([]course.Course, error)
	UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// CacheInvalidator drops cached directory entries after a write changes them.
type CacheInvalidator interface {
	ForgetUser(id string)
	ForgetCourse(id string)
}

type noopInvalidator struct{}

func (noopInvalidator) ForgetUser(string)   {}
func (noopInvalidator) ForgetCourse(string) {}

type CoursesHandler struct {
	courses CourseStore
	cache   CacheInvalidator
	log     *slog.Logger
}

func NewCoursesHandler(courses CourseStore, log *slog.Logger) *CoursesHandler {
	return &CoursesHandler{courses: courses, cache: noopInvalidator{}, log: log}
}

func (h *CoursesHandler) WithInvalidator(c CacheInvalidator) *CoursesHandler {
	if c != nil {
		h.cache = c
	}
	return h
}

var updatableCourseFields = []string{"poster", "title", "description", "mode", "level", "language"}

// Create handles POST /course/create. Admin only, enforced by RequireRole.
func (h *CoursesHandler) Create(ctx *gin.Context) {
	var req course.CreateCourseRequest
	if !BindJSON(ctx, &req) {
		return
	}

	ownerID, _ := middlewares.UserIDFromContext(ctx)

	c, err := h.courses.CreateCourse(ctx.Request.Context(), course.NewFromCreateRequest(ownerID, req))
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "course_create_failed", "err", err)
		RespondInternal(ctx, "Could not create course")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func courseIDParam(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid course id", gin.H{"field": "id", "rule": "uuid"})
		return "", false
	}
	return id, true
}

// GetByID handles GET /course/:id.
func (h *CoursesHandler) GetByID(ctx *gin.Context) {
	id, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	c, err := h.courses.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			RespondNotFound(ctx, "Course not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "course_get_failed", "err", err, "course_id", id)
		RespondInternal(ctx, "Could not load course")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

// List handles GET /course.
func (h *CoursesHandler) List(ctx *gin.Context) {
	items, err := h.courses.ListCourses(ctx.Request.Context())
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "course_list_failed", "err", err)
		RespondInternal(ctx, "Could not list courses")
		return
	}

	if len(items) == 0 {
		RespondNotFound(ctx, "No courses found")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, newListResponse(items))
}

// Update handles PUT /course/update/:id. Only the fields in
// UpdateCourseRequest are writable; anything else in the body is ignored.
func (h *CoursesHandler) Update(ctx *gin.Context) {
	id, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	var req course.UpdateCourseRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Empty() {
		RespondBadRequest(ctx, "No updatable fields in request", gin.H{"allowed": updatableCourseFields})
		return
	}

	c, err := h.courses.UpdateCourse(ctx.Request.Context(), id, req.Normalize())
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			RespondNotFound(ctx, "Course not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "course_update_failed", "err", err, "course_id", id)
		RespondInternal(ctx, "Could not update course")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

// Delete handles DELETE /course/delete/:id. Courses with lectures are kept.
func (h *CoursesHandler) Delete(ctx *gin.Context) {
	id, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	err := h.courses.DeleteCourse(ctx.Request.Context(), id)
	switch {
	case err == nil:
		h.cache.ForgetCourse(id)
		ctx.Status(http.StatusNoContent)
	case errors.Is(err, course.ErrNotFound):
		RespondNotFound(ctx, "Course not found")
	case errors.Is(err, course.ErrInUse):
		RespondConflict(ctx, "course_in_use", "Course still has lectures assigned.")
	default:
		h.log.ErrorContext(ctx.Request.Context(), "course_delete_failed", "err", err, "course_id", id)
		RespondInternal(ctx, "Could not delete course")
	}
}
