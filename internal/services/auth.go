package services

import (
	"context"
	"errors"

	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/monitoring"
	"project-tracker/backend/internal/repositories"
	"project-tracker/backend/internal/session"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *session.Token, error)
	Logout(ctx context.Context, token string) error
	RefreshSession(ctx context.Context, token string) (*session.Token, error)
	ResolveSession(ctx context.Context, token string) (uuid.UUID, error)
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
}

type AuthServiceImpl struct {
	users     repositories.UserRepository
	sessions  session.Store
	dummyHash []byte
	logger    *zap.Logger
}

func NewAuthService(users repositories.UserRepository, sessions session.Store, bcryptCost int, logger *zap.Logger) *AuthServiceImpl {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// compared against when the email is unknown so both paths cost one bcrypt
	dummy, _ := bcrypt.GenerateFromPassword([]byte("project-tracker-dummy"), bcryptCost)

	return &AuthServiceImpl{
		users:     users,
		sessions:  sessions,
		dummyHash: dummy,
		logger:    logger,
	}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.User, *session.Token, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		monitoring.RecordOperation("login", ErrorCode(err))
		return nil, nil, err
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to create session", zap.String("user_id", user.ID.String()), zap.Error(err))
		monitoring.RecordOperation("login", "storage_error")
		return nil, nil, errors.Join(ErrStorage, err)
	}

	monitoring.RecordOperation("login", "success")
	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.logger.Error("Failed to destroy session", zap.Error(err))
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *AuthServiceImpl) RefreshSession(ctx context.Context, token string) (*session.Token, error) {
	refreshed, err := s.sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
		s.logger.Error("Failed to refresh session", zap.Error(err))
		return nil, errors.Join(ErrStorage, err)
	}
	return refreshed, nil
}

// ResolveSession maps a session token to its user, or ErrUnauthenticated.
func (s *AuthServiceImpl) ResolveSession(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrUnauthenticated
	}

	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return uuid.Nil, err
		}
		s.logger.Error("Failed to resolve session", zap.Error(err))
		return uuid.Nil, errors.Join(ErrStorage, err)
	}
	return userID, nil
}

func (s *AuthServiceImpl) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DestroyAllForUser(ctx, userID); err != nil {
		s.logger.Error("Failed to revoke sessions", zap.String("user_id", userID.String()), zap.Error(err))
		return errors.Join(ErrStorage, err)
	}
	return nil
}
