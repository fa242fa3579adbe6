package db

import (
	"context"
	"testing"

	"github.com/geocoder89/lecturehub/internal/config"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/repo/memory"
	"github.com/geocoder89/lecturehub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hasher := security.NewHasher(bcrypt.MinCost)
	cfg := config.Config{AdminEmail: "Root@Example.com", AdminPassword: "password123", AdminName: "Root", AdminRole: "admin"}

	if err := EnsureAdminUser(ctx, store, hasher, cfg); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := EnsureAdminUser(ctx, store, hasher, cfg); err != nil {
		t.Fatalf("second seed must be a no-op: %v", err)
	}

	u, err := store.GetUserByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != user.RoleAdmin {
		t.Fatalf("role = %q", u.Role)
	}
	if err := hasher.Check(u.PasswordHash, "password123"); err != nil {
		t.Fatalf("password not hashed correctly: %v", err)
	}
}

func TestEnsureAdminUserSkipsWithoutCredentials(t *testing.T) {
	store := memory.NewStore()
	if err := EnsureAdminUser(context.Background(), store, security.NewHasher(bcrypt.MinCost), config.Config{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.GetUserByEmail(context.Background(), ""); err == nil {
		t.Fatalf("no user expected")
	}
}
