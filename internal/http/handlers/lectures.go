package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/http/middlewares"
	"github.com/geocoder89/lecturehub/internal/scheduling"
	"github.com/gin-gonic/gin"
)

type LectureScheduler interface {
	Assign(ctx context.Context, callerRole string, req lecture.AssignRequest) (lecture.Lecture, error)
	ByCourse(ctx context.Context, callerRole, courseID string) ([]lecture.Enriched, error)
	All(ctx context.Context, callerRole string) ([]lecture.Enriched, error)
	ByInstructor(ctx context.Context, instructorID string) ([]lecture.Enriched, error)
}

type LecturesHandler struct {
	svc LectureScheduler
}

func NewLecturesHandler(svc LectureScheduler) *LecturesHandler {
	return &LecturesHandler{svc: svc}
}

// Assign handles POST /lecture/assign. The admin check lives in the service,
// so a non-admin gets 403 even when the body is unreadable.
func (h *LecturesHandler) Assign(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)

	var req lecture.AssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		if scheduling.RequireAdmin(role) != nil {
			RespondForbidden(ctx, "Admin role required")
			return
		}
		respondBindError(ctx, err)
		return
	}

	l, err := h.svc.Assign(ctx.Request.Context(), role, req)
	if err != nil {
		respondSchedulingError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"lecture": l})
}

// ByCourse handles GET /lecture/get/:courseId.
func (h *LecturesHandler) ByCourse(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)

	items, err := h.svc.ByCourse(ctx.Request.Context(), role, ctx.Param("courseId"))
	h.respondList(ctx, items, err)
}

// All handles GET /lecture/gets.
func (h *LecturesHandler) All(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)

	items, err := h.svc.All(ctx.Request.Context(), role)
	h.respondList(ctx, items, err)
}

// ByInstructor handles GET /lecture/get-assigned/:instructorId.
func (h *LecturesHandler) ByInstructor(ctx *gin.Context) {
	items, err := h.svc.ByInstructor(ctx.Request.Context(), ctx.Param("instructorId"))
	h.respondList(ctx, items, err)
}

func (h *LecturesHandler) respondList(ctx *gin.Context, items []lecture.Enriched, err error) {
	if err != nil {
		respondSchedulingError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, newListResponse(items))
}

func respondSchedulingError(ctx *gin.Context, err error) {
	var verr *lecture.ValidationError

	switch {
	case errors.As(err, &verr):
		var details interface{}
		if len(verr.Fields) > 0 {
			details = gin.H{"fields": verr.Fields}
		} else if verr.Reason != "" {
			details = gin.H{"reason": verr.Reason}
		}
		RespondBadRequest(ctx, "Invalid lecture request", details)
	case errors.Is(err, lecture.ErrInvalidInput):
		RespondBadRequest(ctx, "Invalid lecture request", nil)
	case errors.Is(err, lecture.ErrForbidden):
		RespondForbidden(ctx, "Admin role required")
	case errors.Is(err, lecture.ErrInstructorNotFound):
		RespondError(ctx, http.StatusNotFound, "instructor_not_found", "Instructor not found or not valid", nil)
	case errors.Is(err, lecture.ErrCourseNotFound):
		RespondError(ctx, http.StatusNotFound, "course_not_found", "Course not found", nil)
	case errors.Is(err, lecture.ErrConflict):
		RespondConflict(ctx, "instructor_already_booked", "Instructor is already booked for an overlapping lecture")
	case errors.Is(err, lecture.ErrNoLectures):
		RespondNotFound(ctx, "Lecture not found")
	default:
		// already logged with op and ids by the service
		RespondInternal(ctx, "Could not process lecture request")
	}
}
