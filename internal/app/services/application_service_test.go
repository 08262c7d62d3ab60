package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	details := apperrors.DetailsOf(err)
	if details == nil {
		t.Fatalf("error %v carries no details", err)
	}
	fields, ok := details["fields"].([]string)
	if !ok {
		t.Fatalf("details %v have no fields list", details)
	}
	return fields
}

func TestSubmitSchoolFees(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	files := schoolFeesFiles()
	files[models.DocRationCard] = upload("ration.png", "image/png", pngBytes)
	files[models.DocMarksheet] = upload("marks.JPG", "image/jpg", jpegBytes)
	files["unexpected"] = upload("other.pdf", "application/pdf", pdfBytes)

	app, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, files)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if app.Status != models.StatusPending || app.Type != models.ApplicationTypeSchoolFees || app.UserID != student.UserID {
		t.Fatalf("unexpected application %+v", app)
	}
	if len(app.Documents) != 7 {
		t.Fatalf("documents = %d, want 7 (unknown fields are ignored)", len(app.Documents))
	}
	if got := f.blobCount(t); got != 7 {
		t.Fatalf("stored blobs = %d, want 7", got)
	}

	marks := app.Documents[models.DocMarksheet]
	if marks.ContentType != "image/jpeg" || marks.FileName != "marks.JPG" || marks.Size != int64(len(jpegBytes)) {
		t.Errorf("marksheet ref = %+v", marks)
	}
	if len(marks.Digest) != 64 {
		t.Errorf("digest %q not recorded", marks.Digest)
	}

	stored, err := f.apps.FindByID(ctx, models.ApplicationTypeSchoolFees, app.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !reflect.DeepEqual(stored.Documents, app.Documents) {
		t.Error("persisted documents differ from returned ones")
	}
}

func TestSubmitRejectsSecondPendingOfSameType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	before := f.blobCount(t)

	_, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
	if !errors.Is(err, apperrors.ErrDuplicatePendingApplication) {
		t.Fatalf("second Submit error = %v, want ErrDuplicatePendingApplication", err)
	}
	if msg := apperrors.MessageOf(err, ""); msg != "You already have a pending School Fees application" {
		t.Errorf("message = %q", msg)
	}
	if f.apps.Len() != 1 || f.blobCount(t) != before {
		t.Error("rejected submission must not store anything")
	}

	// Other types and other users are unaffected.
	payload := dto.ApplicationPayload{YearOfStudy: "2", Field: "Science", BooksRequired: "Physics"}
	if _, err := f.svc.Submit(ctx, student, models.ApplicationTypeStudyBooks, payload, nil); err != nil {
		t.Errorf("study books Submit: %v", err)
	}
	if _, err := f.svc.Submit(ctx, intruder, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles()); err != nil {
		t.Errorf("other user Submit: %v", err)
	}
}

func TestSubmitDuplicateDetectedAtInsert(t *testing.T) {
	f := newFixture(t)
	f.apps.CreateErr = apperrors.ErrDuplicatePendingApplication

	_, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
	if !errors.Is(err, apperrors.ErrDuplicatePendingApplication) {
		t.Fatalf("error = %v, want ErrDuplicatePendingApplication", err)
	}
	if got := f.blobCount(t); got != 0 {
		t.Errorf("blobs left behind: %d", got)
	}
}

func TestSubmitAllowedAgainAfterDecision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.svc.Reject(ctx, admin, models.ApplicationTypeSchoolFees, first.ID, "Income proof unreadable"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles()); err != nil {
		t.Fatalf("resubmission after rejection: %v", err)
	}
}

func TestSubmitListsAllMissingFields(t *testing.T) {
	f := newFixture(t)

	files := schoolFeesFiles()
	delete(files, models.DocMarksheet)
	delete(files, models.DocBankAccount)

	_, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, files)
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("error = %v, want ErrValidationFailed", err)
	}
	want := []string{models.DocMarksheet, models.DocBankAccount}
	if got := fieldsOf(t, err); !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
	if f.blobCount(t) != 0 || f.apps.Len() != 0 {
		t.Error("nothing may be stored for an invalid submission")
	}
}

func TestSubmitTravelExpensesValidation(t *testing.T) {
	f := newFixture(t)
	card := map[string]UploadedFile{models.DocIDCard: upload("id.png", "image/png", pngBytes)}

	tests := []struct {
		name    string
		payload dto.ApplicationPayload
		files   map[string]UploadedFile
		fields  []string
	}{
		{
			name:    "everything missing",
			payload: dto.ApplicationPayload{},
			fields:  []string{"residencePlace", "destinationPlace", "distance", "travelMode", "aidRequired", models.DocIDCard},
		},
		{
			name: "bad numbers",
			payload: dto.ApplicationPayload{
				ResidencePlace: "Pune", DestinationPlace: "Mumbai", Distance: "far", TravelMode: "train", AidRequired: "-5",
			},
			files:  card,
			fields: []string{"distance", "aidRequired"},
		},
		{
			name: "non-finite numbers",
			payload: dto.ApplicationPayload{
				ResidencePlace: "Pune", DestinationPlace: "Mumbai", Distance: "NaN", TravelMode: "train", AidRequired: "Inf",
			},
			files:  card,
			fields: []string{"distance", "aidRequired"},
		},
		{
			name: "negative infinity",
			payload: dto.ApplicationPayload{
				ResidencePlace: "Pune", DestinationPlace: "Mumbai", Distance: "-Inf", TravelMode: "train", AidRequired: "+Inf",
			},
			files:  card,
			fields: []string{"distance", "aidRequired"},
		},
		{
			name: "values wider than their columns",
			payload: dto.ApplicationPayload{
				ResidencePlace:   strings.Repeat("p", 201),
				DestinationPlace: strings.Repeat("é", 200),
				Distance:         "10",
				TravelMode:       strings.Repeat("t", 51),
				AidRequired:      "10",
			},
			files:  card,
			fields: []string{"residencePlace", "travelMode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeTravelExpenses, tt.payload, tt.files)
			if !errors.Is(err, apperrors.ErrValidationFailed) {
				t.Fatalf("error = %v, want ErrValidationFailed", err)
			}
			if got := fieldsOf(t, err); !reflect.DeepEqual(got, tt.fields) {
				t.Errorf("fields = %v, want %v", got, tt.fields)
			}
		})
	}

	payload := dto.ApplicationPayload{
		ResidencePlace: " Pune ", DestinationPlace: "Mumbai", Distance: "148.5", TravelMode: "train", AidRequired: "1200",
	}
	app, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeTravelExpenses, payload, card)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := models.TravelExpensesDetails{
		ResidencePlace: "Pune", DestinationPlace: "Mumbai", Distance: 148.5, TravelMode: "train", AidRequired: 1200,
	}
	if *app.Travel != want {
		t.Errorf("travel = %+v, want %+v", *app.Travel, want)
	}
}

func TestSubmitStudyBooksRejectsOverlongFields(t *testing.T) {
	f := newFixture(t)

	payload := dto.ApplicationPayload{
		YearOfStudy:   strings.Repeat("y", 51),
		Field:         strings.Repeat("f", 101),
		BooksRequired: strings.Repeat("b", 5000),
	}
	_, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeStudyBooks, payload, nil)
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("error = %v, want ErrValidationFailed", err)
	}
	if got, want := fieldsOf(t, err), []string{"yearOfStudy", "field"}; !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
	if f.apps.Len() != 0 {
		t.Errorf("stored %d applications, want 0", f.apps.Len())
	}
}

func TestSubmitRejectsUnacceptableFiles(t *testing.T) {
	oversized := make([]byte, testMaxFileSize+1)
	copy(oversized, pdfBytes)

	understated := upload("big.pdf", "application/pdf", oversized)
	understated.Size = 10

	tests := []struct {
		name string
		file UploadedFile
		want error
	}{
		{"extension", upload("scan.gif", "application/pdf", pdfBytes), apperrors.ErrUnsupportedFileType},
		{"declared type", upload("scan.pdf", "text/plain", pdfBytes), apperrors.ErrUnsupportedFileType},
		{"sniffed type", upload("scan.pdf", "application/pdf", pngBytes), apperrors.ErrUnsupportedFileType},
		{"declared size", upload("big.pdf", "application/pdf", oversized), apperrors.ErrFileTooLarge},
		{"streamed size", understated, apperrors.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			files := schoolFeesFiles()
			files[models.DocIncomeProof] = tt.file

			_, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, files)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if details := apperrors.DetailsOf(err); details["field"] != models.DocIncomeProof {
				t.Errorf("details = %v, want field %s", details, models.DocIncomeProof)
			}
			if got := f.blobCount(t); got != 0 {
				t.Errorf("blobs left behind: %d", got)
			}
			if f.apps.Len() != 0 {
				t.Error("application must not be persisted")
			}
		})
	}
}

func TestSubmitCleansUpWhenPersistFails(t *testing.T) {
	f := newFixture(t)
	f.apps.CreateErr = fmt.Errorf("connection reset")

	_, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := f.blobCount(t); got != 0 {
		t.Errorf("blobs left behind: %d", got)
	}
}

func TestSubmitCleansUpWhenOpenFails(t *testing.T) {
	f := newFixture(t)
	files := schoolFeesFiles()
	broken := upload("bank.pdf", "application/pdf", pdfBytes)
	broken.Open = func() (io.ReadCloser, error) { return nil, fmt.Errorf("temp file vanished") }
	files[models.DocBankAccount] = broken

	_, err := f.svc.Submit(context.Background(), student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, files)
	if !errors.Is(err, apperrors.ErrStorageFailure) {
		t.Fatalf("error = %v, want ErrStorageFailure", err)
	}
	if got := f.blobCount(t); got != 0 {
		t.Errorf("blobs left behind: %d", got)
	}
}

func TestSubmitRejectsUnknownTypeAndAnonymous(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), student, models.ApplicationType("housing"), dto.ApplicationPayload{}, nil)
	if !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("unknown type error = %v, want ErrBadRequest", err)
	}
	_, err = f.svc.Submit(context.Background(), appauth.Principal{}, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, nil)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("anonymous error = %v, want ErrUnauthorized", err)
	}
}

func TestListMineNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	fees, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
	if err != nil {
		t.Fatalf("Submit fees: %v", err)
	}
	books, err := f.svc.Submit(ctx, student, models.ApplicationTypeStudyBooks,
		dto.ApplicationPayload{YearOfStudy: "1", Field: "Arts", BooksRequired: "History"}, nil)
	if err != nil {
		t.Fatalf("Submit books: %v", err)
	}
	if _, err := f.svc.Submit(ctx, intruder, models.ApplicationTypeStudyBooks,
		dto.ApplicationPayload{YearOfStudy: "1", Field: "Arts", BooksRequired: "History"}, nil); err != nil {
		t.Fatalf("Submit other: %v", err)
	}

	// Two records sharing a timestamp are ordered by id.
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	for _, id := range []uuid.UUID{low, high} {
		f.apps.Put(&models.Application{
			ID: id, UserID: student.UserID, Type: models.ApplicationTypeTravelExpenses,
			Status: models.StatusApproved, CreatedAt: fees.CreatedAt.Add(-time.Hour),
		})
	}

	apps, err := f.svc.ListMine(ctx, student)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	var got []uuid.UUID
	for _, app := range apps {
		got = append(got, app.ID)
	}
	want := []uuid.UUID{books.ID, fees.ID, high, low}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels pending", func(t *testing.T) {
		f := newFixture(t)
		app, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if err := f.svc.Cancel(ctx, student, app.ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if f.apps.Len() != 0 || f.blobCount(t) != 0 {
			t.Error("record and blobs must be removed")
		}
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		f := newFixture(t)
		app, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if err := f.svc.Cancel(ctx, intruder, app.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Fatalf("error = %v, want ErrPermissionDenied", err)
		}
		if f.apps.Len() != 1 {
			t.Error("application must survive")
		}
	})

	t.Run("decided application is final", func(t *testing.T) {
		f := newFixture(t)
		app, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles())
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if _, err := f.svc.Approve(ctx, admin, models.ApplicationTypeSchoolFees, app.ID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if err := f.svc.Cancel(ctx, student, app.ID); !errors.Is(err, apperrors.ErrApplicationFinalized) {
			t.Fatalf("error = %v, want ErrApplicationFinalized", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		if err := f.svc.Cancel(ctx, student, uuid.New()); !errors.Is(err, apperrors.ErrApplicationNotFound) {
			t.Fatalf("error = %v, want ErrApplicationNotFound", err)
		}
	})
}

func TestApproveAndReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	app, err := f.svc.Submit(ctx, student, models.ApplicationTypeStudyBooks,
		dto.ApplicationPayload{YearOfStudy: "3", Field: "Commerce", BooksRequired: "Accounts"}, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := f.svc.Approve(ctx, student, models.ApplicationTypeStudyBooks, app.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("non-admin Approve error = %v, want ErrPermissionDenied", err)
	}
	if _, err := f.svc.Reject(ctx, admin, models.ApplicationTypeStudyBooks, app.ID, "   "); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("blank reason error = %v, want ErrValidationFailed", err)
	}
	if _, err := f.svc.Approve(ctx, admin, models.ApplicationTypeSchoolFees, app.ID); !errors.Is(err, apperrors.ErrApplicationNotFound) {
		t.Errorf("wrong type error = %v, want ErrApplicationNotFound", err)
	}

	rejected, err := f.svc.Reject(ctx, admin, models.ApplicationTypeStudyBooks, app.ID, " Missing marks ")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.StatusRejected || rejected.RejectionReason == nil || *rejected.RejectionReason != "Missing marks" {
		t.Fatalf("rejected = %+v", rejected)
	}
	if rejected.RejectionDate == nil || rejected.RejectionDate.IsZero() {
		t.Fatal("rejection date must be set")
	}

	approved, err := f.svc.Approve(ctx, admin, models.ApplicationTypeStudyBooks, app.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.StatusApproved || approved.RejectionReason != nil || approved.RejectionDate != nil {
		t.Errorf("approved = %+v", approved)
	}
	if *approved.StudyBooks != *app.StudyBooks {
		t.Error("decisions must not change the payload")
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.apps.Usernames[student.UserID] = student.Username

	if _, err := f.svc.Submit(ctx, student, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, schoolFeesFiles()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := f.svc.ListAll(ctx, student); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("non-admin ListAll error = %v, want ErrPermissionDenied", err)
	}
	apps, err := f.svc.ListAll(ctx, admin)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(apps) != 1 || apps[0].Username != student.Username {
		t.Errorf("ListAll = %+v", apps)
	}
}

func TestAssignBookAllocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	app, err := f.svc.Submit(ctx, student, models.ApplicationTypeStudyBooks,
		dto.ApplicationPayload{YearOfStudy: "3", Field: "Science", BooksRequired: "Physics, Chemistry"}, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = f.svc.AssignBookAllocation(ctx, admin, app.ID, dto.BookAllocationRequest{BookNumbers: map[string]string{"Physics": " "}})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("error = %v, want ErrValidationFailed", err)
	}
	if got := fieldsOf(t, err); !reflect.DeepEqual(got, []string{"generatedId", "bookNumbers"}) {
		t.Errorf("fields = %v", got)
	}

	updated, err := f.svc.AssignBookAllocation(ctx, admin, app.ID, dto.BookAllocationRequest{
		GeneratedID: "SB-1",
		Standard:    "12",
		BookNumbers: map[string]string{"Physics": "B-101", "Chemistry": "B-102"},
	})
	if err != nil {
		t.Fatalf("AssignBookAllocation: %v", err)
	}
	if updated.Allocation == nil || updated.Allocation.BookNumbers["Physics"] != "B-101" {
		t.Errorf("allocation = %+v", updated.Allocation)
	}
	if updated.Status != models.StatusPending {
		t.Error("allocation must not change the status")
	}
}
