package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentRef points at an uploaded document held in blob storage.
type DocumentRef struct {
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"storageKey"`
	Digest      string    `json:"digest"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// TravelExpensesDetails is the payload of a travel expenses application.
type TravelExpensesDetails struct {
	ResidencePlace   string  `json:"residencePlace" db:"residence_place"`
	DestinationPlace string  `json:"destinationPlace" db:"destination_place"`
	Distance         float64 `json:"distance" db:"distance"`
	TravelMode       string  `json:"travelMode" db:"travel_mode"`
	AidRequired      float64 `json:"aidRequired" db:"aid_required"`
}

// StudyBooksDetails is the payload of a study books application.
type StudyBooksDetails struct {
	YearOfStudy   string `json:"yearOfStudy" db:"year_of_study"`
	Field         string `json:"field" db:"field"`
	BooksRequired string `json:"booksRequired" db:"books_required"`
}

// BookAllocation is assigned by administrators after a study books application
// is reviewed. BookNumbers maps a book name to its allocated number.
type BookAllocation struct {
	GeneratedID string            `json:"generatedId"`
	Standard    string            `json:"standard"`
	Stream      string            `json:"stream"`
	Medium      string            `json:"medium"`
	BookNumbers map[string]string `json:"bookNumbers"`
}

// Application is the common shape of every application variant. Exactly one
// of the variant payloads is populated, selected by Type.
type Application struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	UserID          int64             `json:"userId" db:"user_id"`
	Type            ApplicationType   `json:"applicationType" db:"application_type"`
	Status          ApplicationStatus `json:"status" db:"status"`
	RejectionReason *string           `json:"rejectionReason,omitempty" db:"rejection_reason"`
	RejectionDate   *time.Time        `json:"rejectionDate,omitempty" db:"rejection_date"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`

	Documents map[string]DocumentRef `json:"documents,omitempty" db:"documents"`

	Travel     *TravelExpensesDetails `json:"travel,omitempty"`
	StudyBooks *StudyBooksDetails     `json:"studyBooks,omitempty"`
	Allocation *BookAllocation        `json:"allocation,omitempty" db:"book_allocation"`
}

// IsPending reports whether the application still awaits a decision.
func (a *Application) IsPending() bool {
	return a.Status == StatusPending
}

// Document returns the named document, if present.
func (a *Application) Document(field string) (DocumentRef, bool) {
	if a.Documents == nil {
		return DocumentRef{}, false
	}
	doc, ok := a.Documents[field]
	if !ok || doc.StorageKey == "" {
		return DocumentRef{}, false
	}
	return doc, true
}

// ApplicationWithOwner is an application joined with its owner's username.
type ApplicationWithOwner struct {
	Application
	Username string `json:"username" db:"username"`
}
