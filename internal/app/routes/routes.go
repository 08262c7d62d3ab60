package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/scholarship/internal/app/controllers"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/middleware"
)

// Handlers groups the controllers mounted under /api/v1
type Handlers struct {
	Auth         *controllers.AuthController
	Registration *controllers.RegistrationController
	Application  *controllers.ApplicationController
	Admin        *controllers.AdminController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/auth/me", h.Auth.Me)

	registrations := authenticated.Group("/registrations")
	{
		registrations.POST("", h.Registration.Create)
		registrations.GET("/me", h.Registration.GetMine)
		registrations.PUT("/me", h.Registration.UpdateMine)
		registrations.GET("/status", h.Registration.Status)
	}

	applications := authenticated.Group("/applications")
	{
		applications.POST("/school-fees", h.Application.SubmitSchoolFees)
		applications.POST("/travel-expenses", h.Application.SubmitTravelExpenses)
		applications.POST("/study-books", h.Application.SubmitStudyBooks)
		applications.GET("/my-applications", h.Application.ListMine)
		applications.GET("/all", authMiddleware.RoleRequired(models.RoleAdmin), h.Admin.ListAll)
		applications.GET("/:appId/file/:fieldName", h.Application.GetFile)
		applications.DELETE("/:appId", h.Application.Cancel)
	}

	// Admin-only routes
	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		admin.PUT("/applications/:type/:appId/approve", h.Admin.Approve)
		admin.PUT("/applications/:type/:appId/reject", h.Admin.Reject)
		admin.PUT("/study-books/:appId/allocation", h.Admin.AssignAllocation)
		admin.GET("/search-by-book-number/:number", h.Admin.SearchByBookNumber)
	}
}
