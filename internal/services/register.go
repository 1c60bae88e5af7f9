package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"project-tracker/backend/internal/events"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/monitoring"
	"project-tracker/backend/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

type RegistrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterService interface {
	RegisterUser(ctx context.Context, req RegistrationRequest) (*models.User, error)
}

type RegisterServiceImpl struct {
	users      repositories.UserRepository
	bcryptCost int
	notifier   events.Notifier
	logger     *zap.Logger
}

func NewRegisterService(users repositories.UserRepository, bcryptCost int, notifier events.Notifier, logger *zap.Logger) *RegisterServiceImpl {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &RegisterServiceImpl{
		users:      users,
		bcryptCost: bcryptCost,
		notifier:   notifier,
		logger:     logger,
	}
}

func (r RegistrationRequest) normalize() (RegistrationRequest, error) {
	out := RegistrationRequest{
		Name:     strings.TrimSpace(r.Name),
		Email:    models.NormalizeEmail(r.Email),
		Password: r.Password,
	}

	switch {
	case out.Name == "":
		return out, validationError("name is required")
	case out.Email == "":
		return out, validationError("email is required")
	case strings.TrimSpace(out.Password) == "":
		return out, validationError("password is required")
	case utf8.RuneCountInString(out.Password) < MinPasswordLength:
		return out, validationError("password must be at least %d characters", MinPasswordLength)
	}
	return out, nil
}

func (s *RegisterServiceImpl) RegisterUser(ctx context.Context, req RegistrationRequest) (*models.User, error) {
	user, err := s.register(ctx, req)
	monitoring.RecordOperation("register_user", ErrorCode(err))
	return user, err
}

func (s *RegisterServiceImpl) register(ctx context.Context, req RegistrationRequest) (*models.User, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, validationError("password cannot be hashed: %v", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if isUnexpected(err) {
			s.logger.Error("Failed to create user", zap.String("email", req.Email), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	s.notifier.Notify(ctx, events.New(events.UserRegistered, user.ID))

	return user, nil
}
