package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/repositories"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

// Column widths of the variant tables.
const (
	maxPlaceLen       = 200
	maxTravelModeLen  = 50
	maxYearOfStudyLen = 50
	maxFieldLen       = 100
)

// ApplicationService manages the lifecycle of scholarship applications
type ApplicationService struct {
	apps     repositories.IApplicationRepository
	ingestor *DocumentIngestor
	now      func() time.Time
	logger   zerolog.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(apps repositories.IApplicationRepository, ingestor *DocumentIngestor, logger zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		apps:     apps,
		ingestor: ingestor,
		now:      time.Now,
		logger:   logger,
	}
}

// Submit creates a pending application of type t for the principal.
//
// Checks run in order: no pending application of the same type, all required
// fields present, every file acceptable. Documents are written to blob storage
// before the record is inserted; if anything fails afterwards they are removed.
func (s *ApplicationService) Submit(ctx context.Context, p appauth.Principal, t models.ApplicationType, payload dto.ApplicationPayload, files map[string]UploadedFile) (*models.Application, error) {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown application type %q", t))
	}

	pending, err := s.apps.HasPending(ctx, p.UserID, t)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, duplicatePending(t)
	}

	app := &models.Application{
		ID:        uuid.New(),
		UserID:    p.UserID,
		Type:      t,
		Status:    models.StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := validatePayload(app, payload, files); err != nil {
		return nil, err
	}

	// Only slots the variant declares are kept; anything else is ignored.
	fields := t.DocumentFields()
	for _, field := range fields {
		if f, ok := files[field]; ok {
			if err := s.ingestor.Check(field, f); err != nil {
				return nil, err
			}
		}
	}

	docs := make(map[string]models.DocumentRef)
	for _, field := range fields {
		f, ok := files[field]
		if !ok {
			continue
		}
		ref, err := s.ingestor.Store(ctx, t, app.ID, field, f)
		if err != nil {
			s.ingestor.Discard(ctx, docs)
			return nil, err
		}
		docs[field] = ref
	}
	if len(docs) > 0 {
		app.Documents = docs
	}

	if err := s.apps.CreatePending(ctx, app); err != nil {
		s.ingestor.Discard(ctx, docs)
		if errors.Is(err, apperrors.ErrDuplicatePendingApplication) {
			return nil, duplicatePending(t)
		}
		s.logger.Error().Err(err).Str("applicationID", app.ID.String()).Int64("userID", p.UserID).Msg("Failed to persist application")
		return nil, err
	}

	s.logger.Info().
		Str("applicationID", app.ID.String()).
		Str("type", string(t)).
		Int64("userID", p.UserID).
		Int("documents", len(docs)).
		Msg("Application submitted")
	return app, nil
}

func duplicatePending(t models.ApplicationType) error {
	return apperrors.NewCustomError(apperrors.ErrDuplicatePendingApplication,
		fmt.Sprintf("You already have a pending %s application", t.Label())).
		WithDetails(map[string]interface{}{"applicationType": string(t)})
}

// validatePayload fills the variant payload of app and reports every missing
// or malformed field at once.
func validatePayload(app *models.Application, payload dto.ApplicationPayload, files map[string]UploadedFile) error {
	var invalid []string
	// maxLen is in characters and matches the column width; 0 means unbounded.
	require := func(name, value string, maxLen int) string {
		value = strings.TrimSpace(value)
		if value == "" || (maxLen > 0 && utf8.RuneCountInString(value) > maxLen) {
			invalid = append(invalid, name)
		}
		return value
	}
	number := func(name, value string) float64 {
		value = strings.TrimSpace(value)
		v, err := strconv.ParseFloat(value, 64)
		if value == "" || err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			invalid = append(invalid, name)
			return 0
		}
		return v
	}

	switch app.Type {
	case models.ApplicationTypeSchoolFees:
		for _, field := range models.SchoolFeesRequiredDocuments {
			if _, ok := files[field]; !ok {
				invalid = append(invalid, field)
			}
		}
		if len(invalid) > 0 {
			return apperrors.NewValidationError("Missing required documents: "+strings.Join(invalid, ", "), invalid)
		}
		return nil

	case models.ApplicationTypeTravelExpenses:
		details := &models.TravelExpensesDetails{
			ResidencePlace:   require("residencePlace", payload.ResidencePlace, maxPlaceLen),
			DestinationPlace: require("destinationPlace", payload.DestinationPlace, maxPlaceLen),
			Distance:         number("distance", payload.Distance),
			TravelMode:       require("travelMode", payload.TravelMode, maxTravelModeLen),
			AidRequired:      number("aidRequired", payload.AidRequired),
		}
		if _, ok := files[models.DocIDCard]; !ok {
			invalid = append(invalid, models.DocIDCard)
		}
		if len(invalid) > 0 {
			return apperrors.NewValidationError("Missing or invalid fields: "+strings.Join(invalid, ", "), invalid)
		}
		app.Travel = details
		return nil

	case models.ApplicationTypeStudyBooks:
		details := &models.StudyBooksDetails{
			YearOfStudy:   require("yearOfStudy", payload.YearOfStudy, maxYearOfStudyLen),
			Field:         require("field", payload.Field, maxFieldLen),
			BooksRequired: require("booksRequired", payload.BooksRequired, 0),
		}
		if len(invalid) > 0 {
			return apperrors.NewValidationError("Missing required fields: "+strings.Join(invalid, ", "), invalid)
		}
		app.StudyBooks = details
		return nil
	}

	return apperrors.NewBadRequestError(fmt.Sprintf("unknown application type %q", app.Type))
}

// ListMine returns the principal's applications of every type, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, p appauth.Principal) ([]*models.Application, error) {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	apps, err := s.apps.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	newestFirst(apps)
	return apps, nil
}

// Cancel deletes a pending application owned by the principal together with
// its stored documents. Decided applications cannot be cancelled.
func (s *ApplicationService) Cancel(ctx context.Context, p appauth.Principal, id uuid.UUID) error {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return err
	}

	app, err := findApplication(ctx, s.apps, id)
	if err != nil {
		return err
	}
	if err := appauth.RequireOwner(p, app.UserID); err != nil {
		return err
	}
	if !app.IsPending() {
		return apperrors.NewCustomError(apperrors.ErrApplicationFinalized,
			fmt.Sprintf("Application is already %s and cannot be cancelled", app.Status))
	}

	if err := s.apps.Delete(ctx, app.Type, app.ID); err != nil {
		return err
	}
	s.ingestor.Discard(ctx, app.Documents)

	s.logger.Info().Str("applicationID", id.String()).Int64("userID", p.UserID).Msg("Application cancelled")
	return nil
}

// Approve marks an application approved. Allowed from any status.
func (s *ApplicationService) Approve(ctx context.Context, p appauth.Principal, t models.ApplicationType, id uuid.UUID) (*models.Application, error) {
	if err := appauth.RequireAdmin(p); err != nil {
		return nil, err
	}

	app, err := s.apps.UpdateStatus(ctx, t, id, models.StatusApproved, nil, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("applicationID", id.String()).Str("type", string(t)).Int64("adminID", p.UserID).Msg("Application approved")
	return app, nil
}

// Reject marks an application rejected with a reason and the current time.
func (s *ApplicationService) Reject(ctx context.Context, p appauth.Principal, t models.ApplicationType, id uuid.UUID, reason string) (*models.Application, error) {
	if err := appauth.RequireAdmin(p); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("A rejection reason is required", []string{"reason"})
	}

	now := s.now().UTC()
	app, err := s.apps.UpdateStatus(ctx, t, id, models.StatusRejected, &reason, &now)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("applicationID", id.String()).Str("type", string(t)).Int64("adminID", p.UserID).Msg("Application rejected")
	return app, nil
}

// ListAll returns every application with its owner, newest first.
func (s *ApplicationService) ListAll(ctx context.Context, p appauth.Principal) ([]*models.ApplicationWithOwner, error) {
	if err := appauth.RequireAdmin(p); err != nil {
		return nil, err
	}

	apps, err := s.apps.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	newestFirstWithOwner(apps)
	return apps, nil
}

// AssignBookAllocation records which book numbers were handed out for a study
// books application.
func (s *ApplicationService) AssignBookAllocation(ctx context.Context, p appauth.Principal, id uuid.UUID, req dto.BookAllocationRequest) (*models.Application, error) {
	if err := appauth.RequireAdmin(p); err != nil {
		return nil, err
	}

	allocation := &models.BookAllocation{
		GeneratedID: strings.TrimSpace(req.GeneratedID),
		Standard:    strings.TrimSpace(req.Standard),
		Stream:      strings.TrimSpace(req.Stream),
		Medium:      strings.TrimSpace(req.Medium),
		BookNumbers: make(map[string]string, len(req.BookNumbers)),
	}

	var invalid []string
	if allocation.GeneratedID == "" {
		invalid = append(invalid, "generatedId")
	}
	for name, number := range req.BookNumbers {
		name, number = strings.TrimSpace(name), strings.TrimSpace(number)
		if name == "" || number == "" {
			invalid = append(invalid, "bookNumbers")
			break
		}
		allocation.BookNumbers[name] = number
	}
	if len(req.BookNumbers) == 0 && !slices.Contains(invalid, "bookNumbers") {
		invalid = append(invalid, "bookNumbers")
	}
	if len(invalid) > 0 {
		return nil, apperrors.NewValidationError("Missing or invalid fields: "+strings.Join(invalid, ", "), invalid)
	}

	app, err := s.apps.SetBookAllocation(ctx, id, allocation)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("applicationID", id.String()).Int("books", len(allocation.BookNumbers)).Msg("Book allocation recorded")
	return app, nil
}
