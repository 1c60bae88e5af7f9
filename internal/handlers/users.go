package handlers

import (
	"context"
	"net/http"

	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// UserCache is told about deleted accounts so cached project lists go too.
type UserCache interface {
	ForgetUser(ctx context.Context, userID uuid.UUID)
}

type UserHandler struct {
	userService services.UserService
	authService services.AuthService
	cache       UserCache
	cookie      CookieConfig
	logger      *zap.Logger
}

func NewUserHandler(userService services.UserService, authService services.AuthService, cache UserCache, cookie CookieConfig, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		cache:       cache,
		cookie:      cookie,
		logger:      logger,
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthenticated",
			"message": "Please log in to continue",
		})
	}
	return userID, ok
}

func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newUserProfile(user))
}

// DeleteUser removes the current account with all of its projects and tasks,
// then revokes every session it still holds.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.userService.DeleteUser(ctx, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if h.cache != nil {
		h.cache.ForgetUser(ctx, userID)
	}
	if err := h.authService.RevokeAllSessions(ctx, userID); err != nil {
		h.logger.Warn("Failed to revoke sessions of deleted user",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	if h.cookie.Name != "" {
		c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
