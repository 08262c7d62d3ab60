package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/repositories/repotest"
	"github.com/yigit/scholarship/internal/pkg/auth"
)

func TestEnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := repotest.NewUsers()

	for i := 0; i < 2; i++ {
		if err := EnsureAdmin(ctx, users, "admin", "Admin123", zerolog.Nop()); err != nil {
			t.Fatalf("EnsureAdmin #%d: %v", i+1, err)
		}
	}

	admin, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if admin.ID != 1 || admin.RoleType != models.RoleAdmin {
		t.Errorf("admin = %+v", admin)
	}
	if !auth.CheckPassword(admin.Password, "Admin123") {
		t.Error("stored password does not verify")
	}
}

func TestEnsureAdminSkipsWithoutPassword(t *testing.T) {
	users := repotest.NewUsers()
	if err := EnsureAdmin(context.Background(), users, "admin", "", zerolog.Nop()); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if exists, _ := users.UsernameExists(context.Background(), "admin"); exists {
		t.Error("admin must not be created without a password")
	}
}
