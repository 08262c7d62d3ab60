// Package services holds the business logic of the portal.
//
// Services defined in this package:
//   - AuthService: account registration, login and current user lookup
//   - RegistrationService: the one-time student profile
//   - ApplicationService: submission and lifecycle of scholarship applications
//   - DocumentService: access to documents uploaded with an application
//   - SearchService: admin search over allocated study books
package services

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/repositories"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

// findApplication looks an id up in every variant table, in lookup order.
func findApplication(ctx context.Context, repo repositories.IApplicationRepository, id uuid.UUID) (*models.Application, error) {
	for _, t := range models.ApplicationTypes {
		app, err := repo.FindByID(ctx, t, id)
		if err == nil {
			return app, nil
		}
		if !errors.Is(err, apperrors.ErrApplicationNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.ErrApplicationNotFound
}

// newestFirst orders by creation time descending, breaking ties by id so the
// order is stable across calls.
func newestFirst(apps []*models.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return applicationBefore(apps[i], apps[j])
	})
}

func newestFirstWithOwner(apps []*models.ApplicationWithOwner) {
	sort.SliceStable(apps, func(i, j int) bool {
		return applicationBefore(&apps[i].Application, &apps[j].Application)
	})
}

func applicationBefore(a, b *models.Application) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}
