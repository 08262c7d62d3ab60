package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

func TestFetchDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	files := schoolFeesFiles()
	files[models.DocMarksheet] = upload("marks.png", "image/png", pngBytes)
	app, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, files)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	doc, err := f.docs.Fetch(ctx, student, app.ID, models.DocMarksheet)
	if err != nil {
		t.Fatalf("owner Fetch: %v", err)
	}
	if !bytes.Equal(doc.Data, pngBytes) || doc.ContentType != "image/png" || doc.FileName != "marks.png" || doc.Size != int64(len(pngBytes)) {
		t.Errorf("document = %+v", doc)
	}

	if _, err := f.docs.Fetch(ctx, admin, app.ID, models.DocMarksheet); err != nil {
		t.Errorf("admin Fetch: %v", err)
	}
	if _, err := f.docs.Fetch(ctx, intruder, app.ID, models.DocMarksheet); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("intruder error = %v, want ErrPermissionDenied", err)
	}
	if _, err := f.docs.Fetch(ctx, student, app.ID, models.DocRationCard); !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Errorf("empty slot error = %v, want ErrDocumentNotFound", err)
	}
	if _, err := f.docs.Fetch(ctx, student, uuid.New(), models.DocMarksheet); !errors.Is(err, apperrors.ErrApplicationNotFound) {
		t.Errorf("unknown application error = %v, want ErrApplicationNotFound", err)
	}
}

func TestFetchDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	app, err := f.svc.Submit(ctx, student, models.ApplicationTypeTravelExpenses, dto.ApplicationPayload{
		ResidencePlace: "Nashik", DestinationPlace: "Pune", Distance: "210", TravelMode: "bus", AidRequired: "800",
	}, map[string]UploadedFile{models.DocIDCard: upload("id.pdf", "application/pdf", pdfBytes)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ref := app.Documents[models.DocIDCard]
	if _, err := f.store.Put(ctx, ref.StorageKey, bytes.NewReader([]byte("%PDF-1.4 tampered"))); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := f.docs.Fetch(ctx, student, app.ID, models.DocIDCard); !errors.Is(err, apperrors.ErrStorageFailure) {
		t.Fatalf("error = %v, want ErrStorageFailure", err)
	}

	if err := f.store.Delete(ctx, ref.StorageKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.docs.Fetch(ctx, student, app.ID, models.DocIDCard); !errors.Is(err, apperrors.ErrStorageFailure) {
		t.Fatalf("missing blob error = %v, want ErrStorageFailure", err)
	}
}
