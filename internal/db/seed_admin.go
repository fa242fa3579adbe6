package db

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/lecturehub/internal/config"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/repo"
	"github.com/geocoder89/lecturehub/internal/security"
)

// EnsureAdminUser creates the bootstrap admin from ADMIN_* settings unless a
// user with that email already exists. It works against any store backend.
func EnsureAdminUser(ctx context.Context, users repo.Users, hasher *security.Hasher, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := users.GetUserByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	role := cfg.AdminRole
	if role == "" {
		role = user.RoleAdmin
	}

	u := user.New(user.RegisterRequest{
		Name:  cfg.AdminName,
		Email: strings.ToLower(cfg.AdminEmail),
		Phone: "-",
	}, hash)
	u.Role = role

	_, err = users.CreateUser(ctx, u)
	if errors.Is(err, user.ErrEmailTaken) {
		// another instance seeded it first
		return nil
	}
	return err
}
