package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/filestorage"
)

// sniffLen is how many leading bytes are inspected for magic numbers.
const sniffLen = 512

var allowedExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".pdf":  {},
}

// allowedContentTypes maps accepted declared types to their canonical form.
var allowedContentTypes = map[string]string{
	"image/jpeg":      "image/jpeg",
	"image/jpg":       "image/jpeg",
	"image/pjpeg":     "image/jpeg",
	"image/png":       "image/png",
	"application/pdf": "application/pdf",
}

// UploadedFile is one file of a multipart submission.
type UploadedFile struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader adapts a multipart file header.
func FromFileHeader(fh *multipart.FileHeader) UploadedFile {
	return UploadedFile{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// UploadPolicy bounds what an upload may contain.
type UploadPolicy struct {
	MaxFileSize  int64
	SniffContent bool
}

// DocumentIngestor checks uploads and streams them into blob storage.
type DocumentIngestor struct {
	store  filestorage.BlobStore
	policy UploadPolicy
	now    func() time.Time
	logger zerolog.Logger
}

// NewDocumentIngestor creates a new DocumentIngestor
func NewDocumentIngestor(store filestorage.BlobStore, policy UploadPolicy, logger zerolog.Logger) *DocumentIngestor {
	return &DocumentIngestor{
		store:  store,
		policy: policy,
		now:    time.Now,
		logger: logger,
	}
}

func unsupportedFile(field, reason string) error {
	return apperrors.NewCustomError(apperrors.ErrUnsupportedFileType,
		fmt.Sprintf("%s: %s; only JPEG, PNG and PDF files are accepted", field, reason)).
		WithDetails(map[string]interface{}{"field": field})
}

func (d *DocumentIngestor) tooLarge(field string) error {
	return apperrors.NewCustomError(apperrors.ErrFileTooLarge,
		fmt.Sprintf("%s exceeds the maximum size of %d bytes", field, d.policy.MaxFileSize)).
		WithDetails(map[string]interface{}{"field": field, "maxSize": d.policy.MaxFileSize})
}

// canonicalContentType normalizes a declared content type, reporting whether it is accepted.
func canonicalContentType(declared string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", false
	}
	canonical, ok := allowedContentTypes[strings.ToLower(mediaType)]
	return canonical, ok
}

// Check validates what the client declared about a file. No bytes are read.
func (d *DocumentIngestor) Check(field string, f UploadedFile) error {
	ext := strings.ToLower(filepath.Ext(f.FileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return unsupportedFile(field, fmt.Sprintf("extension %q is not allowed", ext))
	}
	if _, ok := canonicalContentType(f.ContentType); !ok {
		return unsupportedFile(field, fmt.Sprintf("content type %q is not allowed", f.ContentType))
	}
	if f.Size > d.policy.MaxFileSize {
		return d.tooLarge(field)
	}
	return nil
}

// Store sniffs and streams f into blob storage under a key derived from the
// application and field, returning the reference to persist.
func (d *DocumentIngestor) Store(ctx context.Context, t models.ApplicationType, appID uuid.UUID, field string, f UploadedFile) (models.DocumentRef, error) {
	if err := d.Check(field, f); err != nil {
		return models.DocumentRef{}, err
	}
	contentType, _ := canonicalContentType(f.ContentType)

	rc, err := f.Open()
	if err != nil {
		d.logger.Error().Err(err).Str("field", field).Str("fileName", f.FileName).Msg("Failed to open uploaded file")
		return models.DocumentRef{}, fmt.Errorf("%w: cannot open upload %s", apperrors.ErrStorageFailure, field)
	}
	defer rc.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return models.DocumentRef{}, fmt.Errorf("%w: cannot read upload %s", apperrors.ErrStorageFailure, field)
	}
	head = head[:n]

	if d.policy.SniffContent {
		detected := mimetype.Detect(head)
		if !detected.Is(contentType) {
			return models.DocumentRef{}, unsupportedFile(field, fmt.Sprintf("content looks like %s", detected.String()))
		}
	}

	key := fmt.Sprintf("applications/%s/%s/%s%s", t, appID, field, strings.ToLower(filepath.Ext(f.FileName)))
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), rc), d.policy.MaxFileSize+1)

	info, err := d.store.Put(ctx, key, body)
	if err != nil {
		d.logger.Error().Err(err).
			Str("field", field).
			Str("fileName", f.FileName).
			Str("applicationID", appID.String()).
			Msg("Failed to store uploaded document")
		return models.DocumentRef{}, fmt.Errorf("%w: %v", apperrors.ErrStorageFailure, err)
	}
	if info.Size > d.policy.MaxFileSize {
		d.remove(ctx, key)
		return models.DocumentRef{}, d.tooLarge(field)
	}

	return models.DocumentRef{
		FileName:    filepath.Base(f.FileName),
		ContentType: contentType,
		Size:        info.Size,
		StorageKey:  key,
		Digest:      info.Digest,
		UploadedAt:  d.now().UTC(),
	}, nil
}

// Discard removes stored documents. Failures are logged, not returned.
func (d *DocumentIngestor) Discard(ctx context.Context, docs map[string]models.DocumentRef) {
	for _, doc := range docs {
		if doc.StorageKey != "" {
			d.remove(ctx, doc.StorageKey)
		}
	}
}

func (d *DocumentIngestor) remove(ctx context.Context, key string) {
	// The request context may already be cancelled; cleanup still has to run.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := d.store.Delete(cleanupCtx, key); err != nil {
		d.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stored document")
	}
}
