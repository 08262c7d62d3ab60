package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/repositories"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/helpers"
)

// RegistrationService manages the one-time student profile
type RegistrationService struct {
	repo   repositories.IRegistrationRepository
	logger zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(repo repositories.IRegistrationRepository, logger zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		repo:   repo,
		logger: logger,
	}
}

func registrationFromRequest(userID int64, req *dto.RegistrationRequest) (*models.StudentRegistration, error) {
	dob, err := helpers.ParseDate(strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return nil, apperrors.NewValidationError("dateOfBirth must be formatted as YYYY-MM-DD", []string{"dateOfBirth"})
	}

	reg := &models.StudentRegistration{
		UserID:      userID,
		FullName:    strings.TrimSpace(req.FullName),
		DateOfBirth: dob,
		Gender:      strings.TrimSpace(req.Gender),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		College:     strings.TrimSpace(req.College),
		Course:      strings.TrimSpace(req.Course),
		Caste:       strings.TrimSpace(req.Caste),
		IsOrphan:    req.IsOrphan,
		IsDisabled:  req.IsDisabled,
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", reg.FullName},
		{"college", reg.College},
		{"course", reg.Course},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("Missing required fields: "+strings.Join(missing, ", "), missing)
	}
	return reg, nil
}

// Create stores the principal's registration. Each user registers once.
func (s *RegistrationService) Create(ctx context.Context, p appauth.Principal, req *dto.RegistrationRequest) (*models.StudentRegistration, error) {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrRegistrationExists
	}

	reg, err := registrationFromRequest(p.UserID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", p.UserID).Int64("registrationID", reg.ID).Msg("Student registered")
	return reg, nil
}

// Get returns the principal's registration.
func (s *RegistrationService) Get(ctx context.Context, p appauth.Principal) (*models.StudentRegistration, error) {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	return s.repo.GetByUserID(ctx, p.UserID)
}

// IsRegistered reports whether the principal has registered.
func (s *RegistrationService) IsRegistered(ctx context.Context, p appauth.Principal) (bool, error) {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return false, err
	}
	return s.repo.ExistsForUser(ctx, p.UserID)
}

// Update rewrites the principal's existing registration.
func (s *RegistrationService) Update(ctx context.Context, p appauth.Principal, req *dto.RegistrationRequest) (*models.StudentRegistration, error) {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	reg, err := registrationFromRequest(p.UserID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reg); err != nil {
		if errors.Is(err, apperrors.ErrRegistrationNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrRegistrationNotFound, "Register before updating your profile")
		}
		return nil, err
	}
	return reg, nil
}
