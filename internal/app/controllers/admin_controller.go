package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/services"
	"github.com/yigit/scholarship/internal/middleware"
)

// AdminController handles review and search endpoints
type AdminController struct {
	applicationService *services.ApplicationService
	searchService      *services.SearchService
	logger             zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(applicationService *services.ApplicationService, searchService *services.SearchService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		applicationService: applicationService,
		searchService:      searchService,
		logger:             logger,
	}
}

// ListAll returns every application
// @Summary All applications
// @Description Applications of every user and type with the owner's username, newest first.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.AdminApplicationResponse}
// @Failure 403 {object} dto.ErrorResponse "Administrator role required"
// @Router /applications/all [get]
func (c *AdminController) ListAll(ctx *gin.Context) {
	apps, err := c.applicationService.ListAll(ctx.Request.Context(), principal(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewAdminApplicationListResponse(apps), ""))
}

// Approve marks an application approved
// @Summary Approve an application
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param type path string true "Application type" Enums(school-fees, travel-expenses, study-books)
// @Param appId path string true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 403 {object} dto.ErrorResponse "Administrator role required"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{type}/{appId}/approve [put]
func (c *AdminController) Approve(ctx *gin.Context) {
	t, err := applicationTypeParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	id, err := applicationIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	app, err := c.applicationService.Approve(ctx.Request.Context(), principal(ctx), t, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app), "Application approved"))
}

// Reject marks an application rejected
// @Summary Reject an application
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "Application type" Enums(school-fees, travel-expenses, study-books)
// @Param appId path string true "Application ID"
// @Param request body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Reason missing"
// @Failure 403 {object} dto.ErrorResponse "Administrator role required"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{type}/{appId}/reject [put]
func (c *AdminController) Reject(ctx *gin.Context) {
	t, err := applicationTypeParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	id, err := applicationIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.RejectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.Reject(ctx.Request.Context(), principal(ctx), t, id, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app), "Application rejected"))
}

// AssignAllocation records the books handed out for a study books application
// @Summary Record a book allocation
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param appId path string true "Application ID"
// @Param request body dto.BookAllocationRequest true "Allocation"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 404 {object} dto.ErrorResponse "Study books application not found"
// @Router /admin/study-books/{appId}/allocation [put]
func (c *AdminController) AssignAllocation(ctx *gin.Context) {
	id, err := applicationIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.BookAllocationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.AssignBookAllocation(ctx.Request.Context(), principal(ctx), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app), "Allocation recorded"))
}

// SearchByBookNumber finds applications holding a book number
// @Summary Search by book number
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param number path string true "Book number"
// @Success 200 {object} dto.APIResponse{data=[]dto.BookSearchResult}
// @Failure 403 {object} dto.ErrorResponse "Administrator role required"
// @Failure 404 {object} dto.ErrorResponse "No matching applications"
// @Router /admin/search-by-book-number/{number} [get]
func (c *AdminController) SearchByBookNumber(ctx *gin.Context) {
	results, err := c.searchService.SearchByBookNumber(ctx.Request.Context(), principal(ctx), ctx.Param("number"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(results, ""))
}
