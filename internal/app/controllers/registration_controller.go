package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/services"
	"github.com/yigit/scholarship/internal/middleware"
)

// RegistrationController exposes the student profile
type RegistrationController struct {
	registrationService *services.RegistrationService
	logger              zerolog.Logger
}

// NewRegistrationController creates a new RegistrationController
func NewRegistrationController(registrationService *services.RegistrationService, logger zerolog.Logger) *RegistrationController {
	return &RegistrationController{
		registrationService: registrationService,
		logger:              logger,
	}
}

// Create stores the caller's student registration
// @Summary Register as a student
// @Description Captures the student profile. Each account registers once.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegistrationRequest true "Student profile"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Already registered"
// @Router /registrations [post]
func (c *RegistrationController) Create(ctx *gin.Context) {
	var req dto.RegistrationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reg, err := c.registrationService.Create(ctx.Request.Context(), principal(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewRegistrationResponse(reg), "Registration saved"))
}

// GetMine returns the caller's registration
// @Summary Get my registration
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 404 {object} dto.ErrorResponse "Not registered"
// @Router /registrations/me [get]
func (c *RegistrationController) GetMine(ctx *gin.Context) {
	reg, err := c.registrationService.Get(ctx.Request.Context(), principal(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewRegistrationResponse(reg), ""))
}

// Status reports whether the caller has registered
// @Summary Registration status
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationStatusResponse}
// @Router /registrations/status [get]
func (c *RegistrationController) Status(ctx *gin.Context) {
	registered, err := c.registrationService.IsRegistered(ctx.Request.Context(), principal(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RegistrationStatusResponse{Registered: registered}, ""))
}

// UpdateMine rewrites the caller's registration
// @Summary Update my registration
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegistrationRequest true "Student profile"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 404 {object} dto.ErrorResponse "Not registered"
// @Router /registrations/me [put]
func (c *RegistrationController) UpdateMine(ctx *gin.Context) {
	var req dto.RegistrationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reg, err := c.registrationService.Update(ctx.Request.Context(), principal(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewRegistrationResponse(reg), "Registration updated"))
}
