package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

var ErrNotFound = errors.New("user not found")
var ErrEmailTaken = errors.New("email already in use")

type User struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	PasswordHash string  `json:"-"` // never expose hash in JSON
	Role         string  `json:"role"`
	Gender       *string `json:"gender,omitempty"`
	City         *string `json:"city,omitempty"`
	// optional profile fields, nil until the user fills them in
	HighestQualification *string   `json:"highestQualification,omitempty"`
	PreferredLanguage    *string   `json:"preferredLanguage,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (u User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

type RegisterRequest struct {
	Name                 string  `json:"name" binding:"required,min=2,max=120"`
	Email                string  `json:"email" binding:"required,email"`
	Phone                string  `json:"phone" binding:"required,min=6,max=20"`
	Password             string  `json:"password" binding:"required,min=8"`
	Role                 string  `json:"role" binding:"omitempty,oneof=instructor student"`
	Gender               *string `json:"gender" binding:"omitempty,max=20"`
	City                 *string `json:"city" binding:"omitempty,max=80"`
	HighestQualification *string `json:"highestQualification" binding:"omitempty,max=120"`
	PreferredLanguage    *string `json:"preferredLanguage" binding:"omitempty,max=40"`
}

// New builds a user from a registration payload. passwordHash must already be hashed.
func New(req RegisterRequest, passwordHash string) User {
	now := time.Now().UTC()

	role := req.Role
	if role == "" {
		role = RoleInstructor
	}

	return User{
		ID:                   uuid.NewString(),
		Name:                 strings.TrimSpace(req.Name),
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:                req.Phone,
		PasswordHash:         passwordHash,
		Role:                 role,
		Gender:               req.Gender,
		City:                 req.City,
		HighestQualification: req.HighestQualification,
		PreferredLanguage:    req.PreferredLanguage,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// UpdateUserRequest is a partial profile update. Role and password are not
// writable here.
type UpdateUserRequest struct {
	Name                 *string `json:"name" binding:"omitempty,min=2,max=120"`
	Email                *string `json:"email" binding:"omitempty,email"`
	Phone                *string `json:"phone" binding:"omitempty,min=6,max=20"`
	Gender               *string `json:"gender" binding:"omitempty,max=20"`
	City                 *string `json:"city" binding:"omitempty,max=80"`
	HighestQualification *string `json:"highestQualification" binding:"omitempty,max=120"`
	PreferredLanguage    *string `json:"preferredLanguage" binding:"omitempty,max=40"`
}

func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil && r.Gender == nil &&
		r.City == nil && r.HighestQualification == nil && r.PreferredLanguage == nil
}

// Normalize applies the same trimming and case folding as New.
func (r UpdateUserRequest) Normalize() UpdateUserRequest {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &e
	}
	return r
}

func (r UpdateUserRequest) Apply(u User) User {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.Phone != nil {
		u.Phone = *r.Phone
	}
	if r.Gender != nil {
		u.Gender = r.Gender
	}
	if r.City != nil {
		u.City = r.City
	}
	if r.HighestQualification != nil {
		u.HighestQualification = r.HighestQualification
	}
	if r.PreferredLanguage != nil {
		u.PreferredLanguage = r.PreferredLanguage
	}
	return u
}
