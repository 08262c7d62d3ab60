package controllers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/services"
	"github.com/yigit/scholarship/internal/middleware"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

// ApplicationController handles student-facing application endpoints
type ApplicationController struct {
	applicationService *services.ApplicationService
	documentService    *services.DocumentService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService *services.ApplicationService, documentService *services.DocumentService, logger zerolog.Logger) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		documentService:    documentService,
		logger:             logger,
	}
}

// readMultipart splits a multipart submission into form values and the first
// file of every field.
func readMultipart(ctx *gin.Context) (map[string]string, map[string]services.UploadedFile, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, apperrors.NewCustomError(apperrors.ErrFileTooLarge, "Request body is too large")
		}
		return nil, nil, apperrors.NewBadRequestError("Expected a multipart/form-data body")
	}

	values := make(map[string]string, len(form.Value))
	for name, vs := range form.Value {
		if len(vs) > 0 {
			values[name] = vs[0]
		}
	}
	files := make(map[string]services.UploadedFile, len(form.File))
	for name, headers := range form.File {
		if len(headers) > 0 {
			files[name] = services.FromFileHeader(headers[0])
		}
	}
	return values, files, nil
}

func (c *ApplicationController) submit(ctx *gin.Context, t models.ApplicationType, payload dto.ApplicationPayload, files map[string]services.UploadedFile) {
	app, err := c.applicationService.Submit(ctx.Request.Context(), principal(ctx), t, payload, files)
	if err != nil {
		c.logger.Warn().Err(err).Str("type", string(t)).Msg("Application submission rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewApplicationResponse(app),
		t.Label()+" application submitted"))
}

// SubmitSchoolFees handles a school fees application
// @Summary Apply for school fees
// @Description Multipart upload of the required documents. Accepts JPEG, PNG and PDF files.
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param birthCertificate formData file true "Birth certificate"
// @Param leavingCertificate formData file true "Leaving certificate"
// @Param marksheet formData file true "Marksheet"
// @Param admissionProof formData file true "Admission proof"
// @Param incomeProof formData file true "Income proof"
// @Param bankAccount formData file true "Bank account proof"
// @Param rationCard formData file false "Ration card"
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Duplicate pending application, missing fields or unacceptable file"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 500 {object} dto.ErrorResponse "Storage failure"
// @Router /applications/school-fees [post]
func (c *ApplicationController) SubmitSchoolFees(ctx *gin.Context) {
	_, files, err := readMultipart(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.submit(ctx, models.ApplicationTypeSchoolFees, dto.ApplicationPayload{}, files)
}

// SubmitTravelExpenses handles a travel expenses application
// @Summary Apply for travel expenses
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param residencePlace formData string true "Place of residence"
// @Param destinationPlace formData string true "Destination"
// @Param distance formData number true "Distance in km"
// @Param travelMode formData string true "Mode of travel"
// @Param aidRequired formData number true "Aid required"
// @Param idCard formData file true "Identity card"
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Duplicate pending application, missing fields or unacceptable file"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /applications/travel-expenses [post]
func (c *ApplicationController) SubmitTravelExpenses(ctx *gin.Context) {
	values, files, err := readMultipart(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	payload := dto.ApplicationPayload{
		ResidencePlace:   values["residencePlace"],
		DestinationPlace: values["destinationPlace"],
		Distance:         values["distance"],
		TravelMode:       values["travelMode"],
		AidRequired:      values["aidRequired"],
	}
	c.submit(ctx, models.ApplicationTypeTravelExpenses, payload, files)
}

// SubmitStudyBooks handles a study books application
// @Summary Apply for study books
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StudyBooksRequest true "Books requested"
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Duplicate pending application or missing fields"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /applications/study-books [post]
func (c *ApplicationController) SubmitStudyBooks(ctx *gin.Context) {
	var req dto.StudyBooksRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	payload := dto.ApplicationPayload{
		YearOfStudy:   req.YearOfStudy,
		Field:         req.Field,
		BooksRequired: req.BooksRequired,
	}
	c.submit(ctx, models.ApplicationTypeStudyBooks, payload, nil)
}

// ListMine returns the caller's applications
// @Summary My applications
// @Description Applications of every type, newest first.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ApplicationResponse}
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /applications/my-applications [get]
func (c *ApplicationController) ListMine(ctx *gin.Context) {
	apps, err := c.applicationService.ListMine(ctx.Request.Context(), principal(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationListResponse(apps), ""))
}

// Cancel withdraws a pending application
// @Summary Cancel an application
// @Description Deletes a pending application owned by the caller along with its documents.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param appId path string true "Application ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Application already processed"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{appId} [delete]
func (c *ApplicationController) Cancel(ctx *gin.Context) {
	id, err := applicationIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.applicationService.Cancel(ctx.Request.Context(), principal(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Application cancelled"))
}

// GetFile streams an uploaded document
// @Summary Download a document
// @Description Returns the stored bytes of a document slot. Owner or administrator only.
// @Tags applications
// @Produce application/pdf,image/jpeg,image/png
// @Security BearerAuth
// @Param appId path string true "Application ID"
// @Param fieldName path string true "Document field, e.g. marksheet"
// @Success 200 {file} binary
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Application or document not found"
// @Failure 500 {object} dto.ErrorResponse "Storage failure"
// @Router /applications/{appId}/file/{fieldName} [get]
func (c *ApplicationController) GetFile(ctx *gin.Context) {
	id, err := applicationIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	doc, err := c.documentService.Fetch(ctx.Request.Context(), principal(ctx), id, ctx.Param("fieldName"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", ContentDisposition(doc.ContentType, doc.FileName))
	ctx.Header("Content-Length", strconv.FormatInt(doc.Size, 10))
	ctx.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// ContentDisposition renders images and PDFs inline and everything else as an attachment.
func ContentDisposition(contentType, fileName string) string {
	disposition := "attachment"
	if strings.HasPrefix(contentType, "image/") || contentType == "application/pdf" {
		disposition = "inline"
	}
	if header := mime.FormatMediaType(disposition, map[string]string{"filename": fileName}); header != "" {
		return header
	}
	return disposition
}
