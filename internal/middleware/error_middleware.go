package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Order matters: the first matching sentinel wins.
var errorMappings = []errorMapping{
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
	{apperrors.ErrDuplicatePendingApplication, http.StatusBadRequest, dto.ErrorCodeDuplicatePending, "A pending application of this type already exists"},
	{apperrors.ErrApplicationFinalized, http.StatusBadRequest, dto.ErrorCodeFinalized, "Application has already been processed"},
	{apperrors.ErrUnsupportedFileType, http.StatusBadRequest, dto.ErrorCodeUnsupportedFileType, "Unsupported file type"},
	{apperrors.ErrFileTooLarge, http.StatusBadRequest, dto.ErrorCodeFileTooLarge, "File too large"},

	{apperrors.ErrUnauthorized, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token format"},

	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},

	{apperrors.ErrNoMatches, http.StatusNotFound, dto.ErrorCodeNoMatches, "No matching applications"},
	{apperrors.ErrApplicationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Application not found"},
	{apperrors.ErrDocumentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Document not found"},
	{apperrors.ErrRegistrationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Registration not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	{apperrors.ErrUsernameTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Username already taken"},
	{apperrors.ErrRegistrationExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Registration already exists"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},

	{apperrors.ErrStorageFailure, http.StatusInternalServerError, dto.ErrorCodeStorageFailure, "Document storage failure"},
}

// StatusFor returns the HTTP status and error code an error maps to.
func StatusFor(err error) (int, dto.ErrorCode, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, code, fallback := StatusFor(err)

	if status == http.StatusInternalServerError {
		// Driver errors stay in the log.
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		errorDetail := dto.NewErrorDetail(code, fallback)
		c.JSON(status, dto.NewErrorResponse(errorDetail))
		return
	}

	errorDetail := dto.NewErrorDetail(code, apperrors.MessageOf(err, fallback))
	if details := apperrors.DetailsOf(err); details != nil {
		errorDetail = errorDetail.WithDetails(details)
	}
	c.JSON(status, dto.NewErrorResponse(errorDetail))
}
