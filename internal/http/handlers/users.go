package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserDirectory interface {
	GetUser(ctx context.Context, id string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	SearchUsers(ctx context.Context, namePrefix string) ([]user.User, error)
	UpdateUser(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
}

// UsersHandler serves profile lookup and edits. Listing and search are
// admin-only at the router; single-user reads and updates are self or admin.
type UsersHandler struct {
	users UserDirectory
	cache CacheInvalidator
	log   *slog.Logger
}

func NewUsersHandler(users UserDirectory, log *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, cache: noopInvalidator{}, log: log}
}

func (h *UsersHandler) WithInvalidator(c CacheInvalidator) *UsersHandler {
	if c != nil {
		h.cache = c
	}
	return h
}

const maxSearchPrefix = 120

// selfOrAdmin resolves :id and answers 400/403 itself when the caller may not
// touch that user.
func selfOrAdmin(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid user id", gin.H{"field": "id", "rule": "uuid"})
		return "", false
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)
	if callerID != id && role != user.RoleAdmin {
		RespondForbidden(ctx, "Only the account owner or an admin may do this")
		return "", false
	}
	return id, true
}

// GetByID handles GET /user/:id.
func (h *UsersHandler) GetByID(ctx *gin.Context) {
	id, ok := selfOrAdmin(ctx)
	if !ok {
		return
	}

	u, err := h.users.GetUser(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "user_get_failed", "err", err, "user_id", id)
		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// List handles GET /user.
func (h *UsersHandler) List(ctx *gin.Context) {
	items, err := h.users.ListUsers(ctx.Request.Context())
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "user_list_failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, newListResponse(items))
}

// Search handles GET /user/q?name=prefix, a case-insensitive name prefix match.
func (h *UsersHandler) Search(ctx *gin.Context) {
	prefix := strings.TrimSpace(ctx.Query("name"))
	if prefix == "" {
		RespondBadRequest(ctx, "Name query parameter is required", gin.H{"field": "name", "rule": "required"})
		return
	}
	if len(prefix) > maxSearchPrefix {
		RespondBadRequest(ctx, "Name query parameter is too long", gin.H{"field": "name", "rule": "max"})
		return
	}

	items, err := h.users.SearchUsers(ctx.Request.Context(), prefix)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "user_search_failed", "err", err)
		RespondInternal(ctx, "Could not search users")
		return
	}

	if len(items) == 0 {
		RespondNotFound(ctx, "No users found")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, newListResponse(items))
}

// Update handles PUT /user/update/:id. Role and password are not writable.
func (h *UsersHandler) Update(ctx *gin.Context) {
	id, ok := selfOrAdmin(ctx)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Empty() {
		RespondBadRequest(ctx, "No updatable fields in request", nil)
		return
	}

	u, err := h.users.UpdateUser(ctx.Request.Context(), id, req.Normalize())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		default:
			h.log.ErrorContext(ctx.Request.Context(), "user_update_failed", "err", err, "user_id", id)
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	h.cache.ForgetUser(id)
	ctx.JSON(http.StatusOK, u)
}
