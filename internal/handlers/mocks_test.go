package handlers_test

import (
	"context"
	"time"

	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/services"
	"project-tracker/backend/internal/session"

	"github.com/gofrs/uuid"
)

type MockAuthService struct {
	user         *models.User
	loginErr     error
	resolveErr   error
	loggedOut    []string
	revoked      []uuid.UUID
	refreshedOld string
}

func (m *MockAuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.user, nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, *session.Token, error) {
	if m.loginErr != nil {
		return nil, nil, m.loginErr
	}
	return m.user, &session.Token{Value: "session-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	m.loggedOut = append(m.loggedOut, token)
	return nil
}

func (m *MockAuthService) RefreshSession(ctx context.Context, token string) (*session.Token, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	m.refreshedOld = token
	return &session.Token{Value: "rotated-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *MockAuthService) ResolveSession(ctx context.Context, token string) (uuid.UUID, error) {
	if m.resolveErr != nil {
		return uuid.Nil, m.resolveErr
	}
	return m.user.ID, nil
}

func (m *MockAuthService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

type MockRegisterService struct {
	err error
}

func (m *MockRegisterService) RegisterUser(ctx context.Context, req services.RegistrationRequest) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.User{ID: uuid.Must(uuid.NewV4()), Name: req.Name, Email: req.Email}, nil
}

type MockUserService struct {
	user    *models.User
	err     error
	deleted []uuid.UUID
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type MockUserCache struct {
	forgotten []uuid.UUID
}

func (m *MockUserCache) ForgetUser(ctx context.Context, userID uuid.UUID) {
	m.forgotten = append(m.forgotten, userID)
}

type MockProjectService struct {
	projects    []models.Project
	err         error
	lastInput   services.CreateProjectInput
	lastPatch   services.ProjectPatch
	lastActorID uuid.UUID
}

func (m *MockProjectService) CreateProject(ctx context.Context, ownerID uuid.UUID, input services.CreateProjectInput) (*models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastInput = input
	due, _ := models.ParseDate(input.DueDate)
	project := models.Project{ID: uuid.Must(uuid.NewV4()), UserID: ownerID, Title: input.Title, DueDate: due, Description: input.Description}
	for _, title := range input.TaskTitles {
		if title != "" {
			project.Tasks = append(project.Tasks, models.Task{ID: uuid.Must(uuid.NewV4()), ProjectID: project.ID, Title: title})
		}
	}
	return &project, nil
}

func (m *MockProjectService) ListProjectsForUser(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.projects, nil
}

func (m *MockProjectService) GetProjectWithProgress(ctx context.Context, actorID, projectID uuid.UUID) (*services.ProjectDetail, error) {
	m.lastActorID = actorID
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.projects {
		if p.ID == projectID {
			return &services.ProjectDetail{Project: p, Tasks: p.Tasks, Progress: services.ComputeProgress(p.Tasks)}, nil
		}
	}
	return nil, services.ErrNotFound
}

func (m *MockProjectService) UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, patch services.ProjectPatch) (*models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastPatch = patch
	project := models.Project{ID: projectID, Title: "Updated"}
	return &project, nil
}

func (m *MockProjectService) DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error {
	return m.err
}

type MockTaskService struct {
	err       error
	isDone    bool
	lastTitle string
}

func (m *MockTaskService) task(id uuid.UUID) *models.Task {
	return &models.Task{ID: id, ProjectID: uuid.Must(uuid.NewV4()), Title: "Test Task", IsDone: m.isDone}
}

func (m *MockTaskService) AddTask(ctx context.Context, actorID, projectID uuid.UUID, title string) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastTitle = title
	return &models.Task{ID: uuid.Must(uuid.NewV4()), ProjectID: projectID, Title: title}, nil
}

func (m *MockTaskService) GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.task(taskID), nil
}

func (m *MockTaskService) UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, title string) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastTitle = title
	task := m.task(taskID)
	task.Title = title
	return task, nil
}

func (m *MockTaskService) ToggleTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.isDone = !m.isDone
	return m.task(taskID), nil
}

func (m *MockTaskService) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.task(taskID), nil
}
