package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
}

type AuthHandler struct {
	users  UserStore
	hasher PasswordHasher
	jwt    TokenIssuer
	log    *slog.Logger
}

func NewAuthHandler(users UserStore, hasher PasswordHasher, jwt TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, hasher: hasher, jwt: jwt, log: log}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string     `json:"accessToken"`
	User        *user.User `json:"user,omitempty"`
}

// Register handles POST /user/register. Self-registration cannot create admins.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "password_hash_failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.CreateUser(ctx.Request.Context(), user.New(req, hash))
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "user_create_failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusCreated, tokenResponse{AccessToken: token, User: &u})
}

// Login handles POST /user/login.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "user_lookup_failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	if err := h.hasher.Check(u.PasswordHash, req.Password); err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, tokenResponse{AccessToken: token})
}

// Me handles GET /user/me.
func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	u, err := h.users.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
