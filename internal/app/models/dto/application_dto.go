package dto

import (
	"fmt"
	"sort"
	"time"

	"github.com/yigit/scholarship/internal/app/models"
)

// ApplicationPayload carries the non-file fields of a submission. Numeric
// travel fields arrive as raw form strings and are parsed during validation.
type ApplicationPayload struct {
	ResidencePlace   string
	DestinationPlace string
	Distance         string
	TravelMode       string
	AidRequired      string

	YearOfStudy   string
	Field         string
	BooksRequired string
}

// StudyBooksRequest is the JSON body of a study books submission
type StudyBooksRequest struct {
	YearOfStudy   string `json:"yearOfStudy" binding:"max=50" example:"Second Year"`
	Field         string `json:"field" binding:"max=100" example:"Science"`
	BooksRequired string `json:"booksRequired" example:"Physics Vol. 1, Organic Chemistry"`
}

// RejectRequest carries the reason for a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"required" example:"Income proof is not legible"`
}

// BookAllocationRequest assigns books to a study books application
type BookAllocationRequest struct {
	GeneratedID string            `json:"generatedId" binding:"required" example:"SB-2025-0042"`
	Standard    string            `json:"standard" example:"12"`
	Stream      string            `json:"stream" example:"Science"`
	Medium      string            `json:"medium" example:"English"`
	BookNumbers map[string]string `json:"bookNumbers" binding:"required" example:"Physics Vol. 1:B-101"`
}

// DocumentResponse describes an uploaded document without its bytes
type DocumentResponse struct {
	FileName    string    `json:"fileName" example:"marksheet.pdf"`
	ContentType string    `json:"contentType" example:"application/pdf"`
	Size        int64     `json:"size" example:"183422"`
	UploadedAt  time.Time `json:"uploadedAt"`
	URL         string    `json:"url" example:"/api/v1/applications/6f1c.../file/marksheet"`
}

// ApplicationResponse is an application as returned to its owner
type ApplicationResponse struct {
	ID              string                        `json:"id"`
	UserID          int64                         `json:"userId"`
	ApplicationType string                        `json:"applicationType" example:"schoolFees"`
	TypeLabel       string                        `json:"typeLabel" example:"School Fees"`
	Status          string                        `json:"status" example:"pending" enums:"pending,approved,rejected"`
	RejectionReason *string                       `json:"rejectionReason,omitempty"`
	RejectionDate   *time.Time                    `json:"rejectionDate,omitempty"`
	CreatedAt       time.Time                     `json:"createdAt"`
	Documents       map[string]DocumentResponse   `json:"documents,omitempty"`
	Travel          *models.TravelExpensesDetails `json:"travel,omitempty"`
	StudyBooks      *models.StudyBooksDetails     `json:"studyBooks,omitempty"`
	Allocation      *models.BookAllocation        `json:"allocation,omitempty"`
}

// AdminApplicationResponse adds the owner to an application
type AdminApplicationResponse struct {
	ApplicationResponse
	Username string `json:"username" example:"student01"`
}

// DocumentURL is the download path of a document slot.
func DocumentURL(appID, field string) string {
	return fmt.Sprintf("/api/v1/applications/%s/file/%s", appID, field)
}

// NewApplicationResponse converts an application model for output
func NewApplicationResponse(app *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:              app.ID.String(),
		UserID:          app.UserID,
		ApplicationType: string(app.Type),
		TypeLabel:       app.Type.Label(),
		Status:          string(app.Status),
		RejectionReason: app.RejectionReason,
		RejectionDate:   app.RejectionDate,
		CreatedAt:       app.CreatedAt,
		Travel:          app.Travel,
		StudyBooks:      app.StudyBooks,
		Allocation:      app.Allocation,
	}

	if len(app.Documents) > 0 {
		fields := make([]string, 0, len(app.Documents))
		for field := range app.Documents {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		resp.Documents = make(map[string]DocumentResponse, len(fields))
		for _, field := range fields {
			doc, ok := app.Document(field)
			if !ok {
				continue
			}
			resp.Documents[field] = DocumentResponse{
				FileName:    doc.FileName,
				ContentType: doc.ContentType,
				Size:        doc.Size,
				UploadedAt:  doc.UploadedAt,
				URL:         DocumentURL(resp.ID, field),
			}
		}
	}

	return resp
}

// NewApplicationListResponse converts a list of applications
func NewApplicationListResponse(apps []*models.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, NewApplicationResponse(app))
	}
	return out
}

// NewAdminApplicationListResponse converts applications joined with owners
func NewAdminApplicationListResponse(apps []*models.ApplicationWithOwner) []AdminApplicationResponse {
	out := make([]AdminApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, AdminApplicationResponse{
			ApplicationResponse: NewApplicationResponse(&app.Application),
			Username:            app.Username,
		})
	}
	return out
}
