package handlers

import (
	"net/http"
	"time"

	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/services"
	"project-tracker/backend/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authService services.AuthService
	cookie      CookieConfig
	logger      *zap.Logger
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Message   string              `json:"message"`
	Token     string              `json:"token"`
	TokenType string              `json:"token_type"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      UserProfileResponse `json:"user"`
}

type UserProfileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserProfile(user *models.User) UserProfileResponse {
	return UserProfileResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func NewAuthHandler(authService services.AuthService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, logger: logger}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token *session.Token) {
	if h.cookie.Name == "" {
		return
	}
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token.Value, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	if h.cookie.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, token)

	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Logged in successfully!",
		Token:     token.Value,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt,
		User:      newUserProfile(user),
	})
}
