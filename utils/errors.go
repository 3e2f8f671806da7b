package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/resources"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithServiceError maps query service errors onto HTTP responses.
// Storage failures are reported without their cause.
func RespondWithServiceError(c *gin.Context, err error) {
	var invalid *filter.InvalidFilterError
	switch {
	case errors.As(err, &invalid):
		RespondWithError(c, http.StatusBadRequest, "invalid_filter", invalid.Error(), gin.H{
			"field":  invalid.Field,
			"reason": invalid.Reason,
		})
	case errors.Is(err, filter.ErrInvalidFilter):
		RespondWithError(c, http.StatusBadRequest, "invalid_filter", err.Error(), nil)
	case errors.Is(err, resources.ErrNotFound):
		RespondWithNotFound(c, err.Error())
	default:
		RespondWithInternalError(c, "Failed to query resources", nil)
	}
}
