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

// TaskService mutators return the affected task so callers know its project.
type TaskService interface {
	AddTask(ctx context.Context, actorID, projectID uuid.UUID, title string) (*models.Task, error)
	GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error)
	UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, title string) (*models.Task, error)
	ToggleTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error)
	DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error)
}

type TaskServiceImpl struct {
	tasks    repositories.TaskRepository
	authz    AuthorizationService
	notifier events.Notifier
	logger   *zap.Logger
}

func NewTaskService(tasks repositories.TaskRepository, authz AuthorizationService, notifier events.Notifier, logger *zap.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{
		tasks:    tasks,
		authz:    authz,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *TaskServiceImpl) observe(operation string, taskID uuid.UUID, err error) {
	monitoring.RecordOperation(operation, ErrorCode(err))
	if isUnexpected(err) {
		s.logger.Error("Task operation failed",
			zap.String("operation", operation),
			zap.String("task_id", taskID.String()),
			zap.Error(err),
		)
	}
}

// loadTask fetches a task and checks the actor owns its project.
func (s *TaskServiceImpl) loadTask(ctx context.Context, actorID, taskID uuid.UUID, action string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	err = s.authz.Authorize(ctx, AuthorizationRequest{
		UserID:     actorID,
		Resource:   ResourceTask,
		Action:     action,
		ResourceID: task.ID,
		ProjectID:  task.ProjectID,
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) AddTask(ctx context.Context, actorID, projectID uuid.UUID, title string) (*models.Task, error) {
	task, err := s.addTask(ctx, actorID, projectID, title)
	s.observe("add_task", uuid.Nil, err)
	return task, err
}

func (s *TaskServiceImpl) addTask(ctx context.Context, actorID, projectID uuid.UUID, title string) (*models.Task, error) {
	err := s.authz.Authorize(ctx, AuthorizationRequest{
		UserID:     actorID,
		Resource:   ResourceProject,
		Action:     ActionCreate,
		ResourceID: projectID,
	})
	if err != nil {
		return nil, err
	}

	title, err = requireText("title", title)
	if err != nil {
		return nil, err
	}

	task := &models.Task{ProjectID: projectID, Title: title}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.New(events.TaskCreated, actorID).
		WithProject(projectID).
		WithTask(task.ID).
		With("title", task.Title))

	return task, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.loadTask(ctx, actorID, taskID, ActionRead)
	s.observe("get_task", taskID, err)
	return task, err
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, title string) (*models.Task, error) {
	task, err := s.updateTask(ctx, actorID, taskID, title)
	s.observe("update_task", taskID, err)
	return task, err
}

func (s *TaskServiceImpl) updateTask(ctx context.Context, actorID, taskID uuid.UUID, title string) (*models.Task, error) {
	task, err := s.loadTask(ctx, actorID, taskID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	title, err = requireText("title", title)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateTitle(ctx, taskID, title); err != nil {
		return nil, err
	}
	task.Title = title

	s.notifier.Notify(ctx, events.New(events.TaskUpdated, actorID).
		WithProject(task.ProjectID).
		WithTask(task.ID).
		With("title", title))

	return task, nil
}

// ToggleTask flips the task's completion flag; the returned task carries the new value.
func (s *TaskServiceImpl) ToggleTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.toggleTask(ctx, actorID, taskID)
	s.observe("toggle_task", taskID, err)
	return task, err
}

func (s *TaskServiceImpl) toggleTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.loadTask(ctx, actorID, taskID, ActionToggle)
	if err != nil {
		return nil, err
	}

	isDone, err := s.tasks.Toggle(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.IsDone = isDone

	s.notifier.Notify(ctx, events.New(events.TaskToggled, actorID).
		WithProject(task.ProjectID).
		WithTask(task.ID).
		With("is_done", isDone))

	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.deleteTask(ctx, actorID, taskID)
	s.observe("delete_task", taskID, err)
	return task, err
}

func (s *TaskServiceImpl) deleteTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.loadTask(ctx, actorID, taskID, ActionDelete)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.New(events.TaskDeleted, actorID).
		WithProject(task.ProjectID).
		WithTask(task.ID))

	return task, nil
}
