package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/repositories"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

// SearchService answers admin queries over allocated study books
type SearchService struct {
	apps          repositories.IApplicationRepository
	registrations repositories.IRegistrationRepository
	logger        zerolog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(apps repositories.IApplicationRepository, registrations repositories.IRegistrationRepository, logger zerolog.Logger) *SearchService {
	return &SearchService{
		apps:          apps,
		registrations: registrations,
		logger:        logger,
	}
}

// SearchByBookNumber finds study books applications whose allocation hands
// out number, newest first. No match yields apperrors.ErrNoMatches.
func (s *SearchService) SearchByBookNumber(ctx context.Context, p appauth.Principal, number string) ([]dto.BookSearchResult, error) {
	if err := appauth.RequireAdmin(p); err != nil {
		return nil, err
	}

	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperrors.NewValidationError("A book number is required", []string{"number"})
	}

	apps, err := s.apps.FindByBookNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Application, 0, len(apps))
	for _, app := range apps {
		if len(bookNamesFor(app, number)) > 0 {
			matches = append(matches, app)
		}
	}
	if len(matches) == 0 {
		return nil, apperrors.NewCustomError(apperrors.ErrNoMatches,
			fmt.Sprintf("No applications hold book number %s", number))
	}
	newestFirst(matches)

	userIDs := make([]int64, 0, len(matches))
	seen := make(map[int64]struct{}, len(matches))
	for _, app := range matches {
		if _, ok := seen[app.UserID]; !ok {
			seen[app.UserID] = struct{}{}
			userIDs = append(userIDs, app.UserID)
		}
	}
	regs, err := s.registrations.GetByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	results := make([]dto.BookSearchResult, 0, len(matches))
	for _, app := range matches {
		result := dto.BookSearchResult{
			ApplicationID: app.ID.String(),
			GeneratedID:   app.Allocation.GeneratedID,
			Status:        string(app.Status),
			Standard:      app.Allocation.Standard,
			Stream:        app.Allocation.Stream,
			Medium:        app.Allocation.Medium,
			BookNames:     bookNamesFor(app, number),
		}
		if reg, ok := regs[app.UserID]; ok {
			result.Registration = &dto.RegistrationSummary{
				FullName: reg.FullName,
				College:  reg.College,
				Course:   reg.Course,
				Address:  reg.Address,
			}
		}
		results = append(results, result)
	}

	s.logger.Debug().Str("number", number).Int("matches", len(results)).Msg("Book number search")
	return results, nil
}

// bookNamesFor lists, sorted, the books allocated under number.
func bookNamesFor(app *models.Application, number string) []string {
	if app.Allocation == nil {
		return nil
	}
	var names []string
	for name, n := range app.Allocation.BookNumbers {
		if n == number {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
