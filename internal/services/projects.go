package services

import (
	"context"
	"strings"
	"time"

	"project-tracker/backend/internal/events"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/monitoring"
	"project-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type CreateProjectInput struct {
	Title       string   `json:"title"`
	DueDate     string   `json:"due_date"`
	Description string   `json:"description"`
	TaskTitles  []string `json:"tasks"`
}

// ProjectPatch holds the fields of an update. Nil fields are left unchanged.
type ProjectPatch struct {
	Title       *string `json:"title"`
	DueDate     *string `json:"due_date"`
	Description *string `json:"description"`
}

type ProjectDetail struct {
	Project  models.Project `json:"project"`
	Tasks    []models.Task  `json:"tasks"`
	Progress int            `json:"progress"`
}

type ProjectService interface {
	CreateProject(ctx context.Context, ownerID uuid.UUID, input CreateProjectInput) (*models.Project, error)
	ListProjectsForUser(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	GetProjectWithProgress(ctx context.Context, actorID, projectID uuid.UUID) (*ProjectDetail, error)
	UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, patch ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error
}

type ProjectServiceImpl struct {
	projects repositories.ProjectRepository
	authz    AuthorizationService
	notifier events.Notifier
	logger   *zap.Logger
}

func NewProjectService(projects repositories.ProjectRepository, authz AuthorizationService, notifier events.Notifier, logger *zap.Logger) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		projects: projects,
		authz:    authz,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *ProjectServiceImpl) observe(operation string, err error, fields ...zap.Field) {
	monitoring.RecordOperation(operation, ErrorCode(err))
	if isUnexpected(err) {
		s.logger.Error("Project operation failed", append(fields, zap.String("operation", operation), zap.Error(err))...)
	}
}

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", validationError("%s is required", field)
	}
	return trimmed, nil
}

func parseDueDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, validationError("due_date is required")
	}
	due, err := models.ParseDate(trimmed)
	if err != nil {
		return time.Time{}, validationError("due_date must be a valid date in YYYY-MM-DD format")
	}
	return due, nil
}

// CreateProject stores the project and one task per non-blank title in a single transaction.
func (s *ProjectServiceImpl) CreateProject(ctx context.Context, ownerID uuid.UUID, input CreateProjectInput) (*models.Project, error) {
	project, err := s.createProject(ctx, ownerID, input)
	s.observe("create_project", err, zap.String("user_id", ownerID.String()))
	return project, err
}

func (s *ProjectServiceImpl) createProject(ctx context.Context, ownerID uuid.UUID, input CreateProjectInput) (*models.Project, error) {
	title, err := requireText("title", input.Title)
	if err != nil {
		return nil, err
	}
	description, err := requireText("description", input.Description)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	project := models.Project{
		UserID:      ownerID,
		Title:       title,
		DueDate:     dueDate,
		Description: description,
	}
	for _, t := range input.TaskTitles {
		if t = strings.TrimSpace(t); t != "" {
			project.Tasks = append(project.Tasks, models.Task{Title: t})
		}
	}

	if err := s.projects.Create(ctx, &project); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.New(events.ProjectCreated, ownerID).
		WithProject(project.ID).
		With("title", project.Title).
		With("task_count", len(project.Tasks)))

	return &project, nil
}

func (s *ProjectServiceImpl) ListProjectsForUser(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	projects, err := s.projects.FindAllByOwner(ctx, ownerID)
	s.observe("list_projects", err, zap.String("user_id", ownerID.String()))
	return projects, err
}

func (s *ProjectServiceImpl) GetProjectWithProgress(ctx context.Context, actorID, projectID uuid.UUID) (*ProjectDetail, error) {
	detail, err := s.getProjectWithProgress(ctx, actorID, projectID)
	s.observe("get_project", err, zap.String("project_id", projectID.String()))
	return detail, err
}

func (s *ProjectServiceImpl) getProjectWithProgress(ctx context.Context, actorID, projectID uuid.UUID) (*ProjectDetail, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	err = s.authz.Authorize(ctx, AuthorizationRequest{
		UserID:     actorID,
		Resource:   ResourceProject,
		Action:     ActionRead,
		ResourceID: project.ID,
		OwnerID:    project.UserID,
	})
	if err != nil {
		return nil, err
	}

	tasks := project.Tasks
	if tasks == nil {
		tasks = []models.Task{}
	}
	project.Tasks = nil

	return &ProjectDetail{
		Project:  *project,
		Tasks:    tasks,
		Progress: ComputeProgress(tasks),
	}, nil
}

func (s *ProjectServiceImpl) UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	project, err := s.updateProject(ctx, actorID, projectID, patch)
	s.observe("update_project", err, zap.String("project_id", projectID.String()))
	return project, err
}

func (s *ProjectServiceImpl) updateProject(ctx context.Context, actorID, projectID uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	err := s.authz.Authorize(ctx, AuthorizationRequest{
		UserID:     actorID,
		Resource:   ResourceProject,
		Action:     ActionUpdate,
		ResourceID: projectID,
	})
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Title != nil {
		title, err := requireText("title", *patch.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if patch.Description != nil {
		description, err := requireText("description", *patch.Description)
		if err != nil {
			return nil, err
		}
		fields["description"] = description
	}
	if patch.DueDate != nil {
		dueDate, err := parseDueDate(*patch.DueDate)
		if err != nil {
			return nil, err
		}
		fields["due_date"] = dueDate
	}

	if err := s.projects.Update(ctx, projectID, fields); err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(fields))
	for k := range fields {
		changed = append(changed, k)
	}
	s.notifier.Notify(ctx, events.New(events.ProjectUpdated, actorID).
		WithProject(projectID).
		With("fields", changed))

	return project, nil
}

// DeleteProject removes the project and all of its tasks.
func (s *ProjectServiceImpl) DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error {
	err := s.deleteProject(ctx, actorID, projectID)
	s.observe("delete_project", err, zap.String("project_id", projectID.String()))
	return err
}

func (s *ProjectServiceImpl) deleteProject(ctx context.Context, actorID, projectID uuid.UUID) error {
	err := s.authz.Authorize(ctx, AuthorizationRequest{
		UserID:     actorID,
		Resource:   ResourceProject,
		Action:     ActionDelete,
		ResourceID: projectID,
	})
	if err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}

	s.notifier.Notify(ctx, events.New(events.ProjectDeleted, actorID).WithProject(projectID))
	return nil
}
