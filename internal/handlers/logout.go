package handlers

import (
	"net/http"

	"project-tracker/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logout always succeeds from the client's point of view; an unknown or
// already expired session is simply gone.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := middleware.ExtractSessionToken(c, h.cookie.Name)
	if err == nil {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			h.logger.Warn("Failed to destroy session", zap.Error(err))
		}
	}

	h.clearSessionCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully!",
	})
}
