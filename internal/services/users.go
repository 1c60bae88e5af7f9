package services

import (
	"context"

	"project-tracker/backend/internal/events"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/monitoring"
	"project-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type UserServiceImpl struct {
	users    repositories.UserRepository
	notifier events.Notifier
	logger   *zap.Logger
}

func NewUserService(users repositories.UserRepository, notifier events.Notifier, logger *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{users: users, notifier: notifier, logger: logger}
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// DeleteUser removes the user and, in the same transaction, all of its projects and tasks.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.users.Delete(ctx, id)
	monitoring.RecordOperation("delete_user", ErrorCode(err))
	if err != nil {
		if isUnexpected(err) {
			s.logger.Error("Failed to delete user", zap.String("user_id", id.String()), zap.Error(err))
		}
		return err
	}

	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	s.notifier.Notify(ctx, events.New(events.UserDeleted, id))
	return nil
}
