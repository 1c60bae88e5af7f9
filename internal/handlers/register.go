package handlers

import (
	"net/http"

	"project-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterHandler struct {
	registerService services.RegisterService
	logger          *zap.Logger
}

func NewRegisterHandler(registerService services.RegisterService, logger *zap.Logger) *RegisterHandler {
	return &RegisterHandler{registerService: registerService, logger: logger}
}

type RegistrationResponse struct {
	Message string              `json:"message"`
	User    UserProfileResponse `json:"user"`
}

func (h *RegisterHandler) Registration(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.registerService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("User registered", zap.String("user_id", user.ID.String()))

	c.JSON(http.StatusCreated, RegistrationResponse{
		Message: "Account created successfully! Please log in.",
		User:    newUserProfile(user),
	})
}
