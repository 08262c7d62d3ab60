// Package controllers handles HTTP request handling
package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/middleware"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

// principal returns the caller set by the auth middleware, or an anonymous
// principal which every service rejects.
func principal(ctx *gin.Context) appauth.Principal {
	p, _ := middleware.PrincipalFrom(ctx)
	return p
}

func applicationIDParam(ctx *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("appId"))
	if err != nil {
		return uuid.Nil, apperrors.NewCustomError(apperrors.ErrApplicationNotFound, "Application not found")
	}
	return id, nil
}

func applicationTypeParam(ctx *gin.Context) (models.ApplicationType, error) {
	t, ok := models.ParseApplicationType(ctx.Param("type"))
	if !ok {
		return "", apperrors.NewBadRequestError("Unknown application type " + ctx.Param("type"))
	}
	return t, nil
}
