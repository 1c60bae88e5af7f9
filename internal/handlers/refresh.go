package handlers

import (
	"net/http"

	"project-tracker/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Refresh rotates the current session: the old token stops working and a
// new one with a full lifetime is issued.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := middleware.CurrentSessionToken(c)
	if token == "" {
		var err error
		if token, err = middleware.ExtractSessionToken(c, h.cookie.Name); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "Please log in to continue",
			})
			return
		}
	}

	refreshed, err := h.authService.RefreshSession(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, refreshed)

	c.JSON(http.StatusOK, gin.H{
		"token":      refreshed.Value,
		"token_type": "Bearer",
		"expires_at": refreshed.ExpiresAt,
	})
}
