package handlers

import (
	"net/http"

	"project-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByCode = map[string]int{
	"validation_error":    http.StatusBadRequest,
	"duplicate_email":     http.StatusConflict,
	"invalid_credentials": http.StatusUnauthorized,
	"not_found":           http.StatusNotFound,
	"unauthenticated":     http.StatusUnauthorized,
	"invalid_reference":   http.StatusUnprocessableEntity,
	"forbidden":           http.StatusForbidden,
	"storage_error":       http.StatusInternalServerError,
}

var messageByCode = map[string]string{
	"duplicate_email":     "An account with this email already exists",
	"invalid_credentials": "Invalid email or password",
	"unauthenticated":     "Please log in to continue",
	"invalid_reference":   "Referenced record does not exist",
	"forbidden":           "You do not have access to this resource",
	"storage_error":       "An unexpected error occurred. Please try again later.",
}

// respondError writes the JSON error body for a service error. Validation and
// not-found errors carry their own message; everything else gets a fixed one.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code := services.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message, fixed := messageByCode[code]
	if !fixed {
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "Invalid request format",
		"details": err.Error(),
	})
}

func respondInvalidID(c *gin.Context, what string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "Invalid " + what + " ID format",
	})
}
