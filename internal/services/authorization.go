package services

import (
	"context"
	"fmt"
	"time"

	"project-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const (
	ResourceProject = "project"
	ResourceTask    = "task"

	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionCreate = "create"
	ActionToggle = "toggle"

	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

type AuthorizationService interface {
	IsAuthorized(ctx context.Context, request AuthorizationRequest) (*AuthorizationDecision, error)
	Authorize(ctx context.Context, request AuthorizationRequest) error
}

type AuthorizationServiceImpl struct {
	projects repositories.ProjectRepository
	logger   *zap.Logger
}

func NewAuthorizationService(projects repositories.ProjectRepository, logger *zap.Logger) *AuthorizationServiceImpl {
	return &AuthorizationServiceImpl{projects: projects, logger: logger.Named("authz")}
}

// AuthorizationRequest asks whether UserID may perform Action on a project or
// on a task of ProjectID. OwnerID skips the owner lookup when the caller
// already loaded the project.
type AuthorizationRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	ResourceID uuid.UUID `json:"resource_id"`
	ProjectID  uuid.UUID `json:"project_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
}

type AuthorizationDecision struct {
	UserID     uuid.UUID `json:"user_id"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	ResourceID uuid.UUID `json:"resource_id"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

func (d *AuthorizationDecision) Allowed() bool {
	return d.Decision == DecisionAllowed
}

// IsAuthorized applies the ownership rule: projects are visible only to the
// user who created them, tasks only to the owner of their project.
func (s *AuthorizationServiceImpl) IsAuthorized(ctx context.Context, request AuthorizationRequest) (*AuthorizationDecision, error) {
	decision := &AuthorizationDecision{
		UserID:     request.UserID,
		Resource:   request.Resource,
		Action:     request.Action,
		ResourceID: request.ResourceID,
		Decision:   DecisionDenied,
		Timestamp:  time.Now(),
	}

	if request.UserID == uuid.Nil {
		decision.Reason = "no authenticated user"
		return decision, nil
	}

	ownerID := request.OwnerID
	if ownerID == uuid.Nil {
		projectID := request.ProjectID
		if request.Resource == ResourceProject {
			projectID = request.ResourceID
		}

		var err error
		ownerID, err = s.projects.FindOwnerID(ctx, projectID)
		if err != nil {
			decision.Reason = fmt.Sprintf("owner lookup failed: %v", err)
			return decision, err
		}
	}

	switch request.Resource {
	case ResourceProject, ResourceTask:
	default:
		decision.Reason = "unknown resource type"
		return decision, nil
	}

	if ownerID != request.UserID {
		decision.Reason = fmt.Sprintf("%s belongs to another user", request.Resource)
		return decision, nil
	}

	decision.Decision = DecisionAllowed
	decision.Reason = "owner has full access"
	return decision, nil
}

// Authorize is IsAuthorized collapsed to an error: ErrForbidden on denial.
func (s *AuthorizationServiceImpl) Authorize(ctx context.Context, request AuthorizationRequest) error {
	decision, err := s.IsAuthorized(ctx, request)
	if err != nil {
		return err
	}

	s.logAuthorizationDecision(*decision)

	if !decision.Allowed() {
		return fmt.Errorf("%w: %s", ErrForbidden, decision.Reason)
	}
	return nil
}

func (s *AuthorizationServiceImpl) logAuthorizationDecision(decision AuthorizationDecision) {
	fields := []zap.Field{
		zap.String("user_id", decision.UserID.String()),
		zap.String("resource", decision.Resource),
		zap.String("resource_id", decision.ResourceID.String()),
		zap.String("action", decision.Action),
		zap.String("reason", decision.Reason),
	}

	if decision.Allowed() {
		s.logger.Debug("Access granted", fields...)
		return
	}
	s.logger.Warn("Access denied", fields...)
}
