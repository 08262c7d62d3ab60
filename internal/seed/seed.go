package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/scholarship/internal/app/models"
	appRepos "github.com/yigit/scholarship/internal/app/repositories"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/auth"
)

// EnsureAdmin creates the administrator account if no user holds username.
// An empty password disables seeding.
func EnsureAdmin(ctx context.Context, users appRepos.IUserRepository, username, password string, lgr zerolog.Logger) error {
	if username == "" || password == "" {
		lgr.Warn().Msg("Admin credentials not configured, skipping admin seeding")
		return nil
	}

	exists, err := users.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("checking admin user: %w", err)
	}
	if exists {
		lgr.Info().Str("username", username).Msg("Admin user already exists, skipping creation")
		return nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	admin := &appModels.User{
		Username: username,
		Password: hashed,
		RoleType: appModels.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		// Another instance may have seeded concurrently.
		if errors.Is(err, apperrors.ErrUsernameTaken) {
			return nil
		}
		return fmt.Errorf("creating admin user: %w", err)
	}

	lgr.Info().Int64("adminID", admin.ID).Str("username", username).Msg("Default admin user created successfully")
	return nil
}
