package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/repositories"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/filestorage"
)

// Document is a stored upload ready to be sent back to a client.
type Document struct {
	Data        []byte
	ContentType string
	FileName    string
	Size        int64
}

// DocumentService serves documents attached to applications
type DocumentService struct {
	apps    repositories.IApplicationRepository
	store   filestorage.BlobStore
	maxSize int64
	logger  zerolog.Logger
}

// NewDocumentService creates a new DocumentService. maxSize bounds how much is
// read back from storage.
func NewDocumentService(apps repositories.IApplicationRepository, store filestorage.BlobStore, maxSize int64, logger zerolog.Logger) *DocumentService {
	return &DocumentService{
		apps:    apps,
		store:   store,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Fetch returns the document stored in field of the application. Only the
// owner and administrators may read it; the content must match the digest
// recorded at upload.
func (s *DocumentService) Fetch(ctx context.Context, p appauth.Principal, appID uuid.UUID, field string) (*Document, error) {
	if err := appauth.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	app, err := findApplication(ctx, s.apps, appID)
	if err != nil {
		return nil, err
	}
	if err := appauth.RequireOwnerOrAdmin(p, app.UserID); err != nil {
		return nil, err
	}

	ref, ok := app.Document(field)
	if !ok {
		return nil, apperrors.NewCustomError(apperrors.ErrDocumentNotFound,
			fmt.Sprintf("Application has no %s document", field))
	}

	log := s.logger.With().
		Str("applicationID", appID.String()).
		Str("field", field).
		Str("fileName", ref.FileName).
		Logger()

	rc, err := s.store.Get(ctx, ref.StorageKey)
	if err != nil {
		if errors.Is(err, filestorage.ErrObjectNotFound) {
			log.Error().Str("key", ref.StorageKey).Msg("Document referenced by application is missing from storage")
		} else {
			log.Error().Err(err).Msg("Failed to open stored document")
		}
		return nil, fmt.Errorf("%w: cannot read %s", apperrors.ErrStorageFailure, field)
	}
	defer rc.Close()

	limit := s.maxSize
	if ref.Size > limit {
		limit = ref.Size
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read stored document")
		return nil, fmt.Errorf("%w: cannot read %s", apperrors.ErrStorageFailure, field)
	}

	if ref.Digest != "" && filestorage.Digest(data) != ref.Digest {
		log.Error().Int("bytes", len(data)).Int64("expectedBytes", ref.Size).Msg("Stored document does not match its digest")
		return nil, fmt.Errorf("%w: %s is corrupted", apperrors.ErrStorageFailure, field)
	}

	return &Document{
		Data:        data,
		ContentType: ref.ContentType,
		FileName:    ref.FileName,
		Size:        int64(len(data)),
	}, nil
}
