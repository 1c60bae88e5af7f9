package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"project-tracker/backend/internal/cache"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

const (
	projectDetailTTL = 5 * time.Minute
	projectListTTL   = 2 * time.Minute
)

// ProjectStamps reads the stored revision of projects. A cache hit is served
// only while its copy matches the stamp.
type ProjectStamps interface {
	FindStamp(ctx context.Context, id uuid.UUID) (repositories.ProjectStamp, error)
	FindStampsByOwner(ctx context.Context, ownerID uuid.UUID) ([]repositories.ProjectStamp, error)
}

// CachedProjectService serves project reads from the multi-level cache. Every
// project or task mutation evicts the project's detail and its owner's list.
// A hit whose copy no longer matches the database stamp is reloaded.
type CachedProjectService struct {
	projects ProjectService
	tasks    TaskService
	stamps   ProjectStamps
	cache    *cache.MultiLevelCache
}

func NewCachedProjectService(projects ProjectService, tasks TaskService, stamps ProjectStamps, cacheInstance *cache.MultiLevelCache) *CachedProjectService {
	return &CachedProjectService{
		projects: projects,
		tasks:    tasks,
		stamps:   stamps,
		cache:    cacheInstance,
	}
}

func projectKey(id uuid.UUID) string {
	return fmt.Sprintf("project:%s", id.String())
}

func userProjectsKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("user_projects:%s", ownerID.String())
}

func (s *CachedProjectService) invalidate(ctx context.Context, ownerID, projectID uuid.UUID) {
	keys := []string{userProjectsKey(ownerID)}
	if projectID != uuid.Nil {
		keys = append(keys, projectKey(projectID))
	}
	_ = s.cache.Delete(ctx, keys...)
}

func (s *CachedProjectService) CreateProject(ctx context.Context, ownerID uuid.UUID, input CreateProjectInput) (*models.Project, error) {
	project, err := s.projects.CreateProject(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID, uuid.Nil)
	return project, nil
}

func (s *CachedProjectService) ListProjectsForUser(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	key := userProjectsKey(ownerID)

	var cached []models.Project
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		stamps, err := s.stamps.FindStampsByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if listMatches(cached, stamps) {
			return cached, nil
		}
	}

	projects, err := s.projects.ListProjectsForUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, projects, projectListTTL)
	return projects, nil
}

func (s *CachedProjectService) GetProjectWithProgress(ctx context.Context, actorID, projectID uuid.UUID) (*ProjectDetail, error) {
	key := projectKey(projectID)

	var cached ProjectDetail
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		stamp, err := s.stamps.FindStamp(ctx, projectID)
		if errors.Is(err, ErrNotFound) {
			_ = s.cache.Delete(ctx, key)
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		if stamp.UserID != actorID {
			return nil, fmt.Errorf("%w: project belongs to another user", ErrForbidden)
		}
		if stamp.UpdatedAt.Equal(cached.Project.UpdatedAt) {
			return &cached, nil
		}
	}

	detail, err := s.projects.GetProjectWithProgress(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, detail, projectDetailTTL)
	return detail, nil
}

func (s *CachedProjectService) UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	project, err := s.projects.UpdateProject(ctx, actorID, projectID, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, project.UserID, projectID)
	return project, nil
}

func (s *CachedProjectService) DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error {
	if err := s.projects.DeleteProject(ctx, actorID, projectID); err != nil {
		return err
	}
	// only the owner can delete, so the actor's list is the one to evict
	s.invalidate(ctx, actorID, projectID)
	return nil
}

func (s *CachedProjectService) AddTask(ctx context.Context, actorID, projectID uuid.UUID, title string) (*models.Task, error) {
	task, err := s.tasks.AddTask(ctx, actorID, projectID, title)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, actorID, projectID)
	return task, nil
}

func (s *CachedProjectService) GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	return s.tasks.GetTask(ctx, actorID, taskID)
}

func (s *CachedProjectService) UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, title string) (*models.Task, error) {
	task, err := s.tasks.UpdateTask(ctx, actorID, taskID, title)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, actorID, task.ProjectID)
	return task, nil
}

func (s *CachedProjectService) ToggleTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.ToggleTask(ctx, actorID, taskID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, actorID, task.ProjectID)
	return task, nil
}

func (s *CachedProjectService) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.DeleteTask(ctx, actorID, taskID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, actorID, task.ProjectID)
	return task, nil
}

// ForgetUser drops the cached list of a deleted user and the details of every
// project that list still names.
func (s *CachedProjectService) ForgetUser(ctx context.Context, userID uuid.UUID) {
	listKey := userProjectsKey(userID)
	keys := []string{listKey}

	var cached []models.Project
	if err := s.cache.Get(ctx, listKey, &cached); err == nil {
		for _, project := range cached {
			keys = append(keys, projectKey(project.ID))
		}
	}
	_ = s.cache.Delete(ctx, keys...)
}

// listMatches reports whether a cached list holds exactly the stored projects
// at their stored revisions.
func listMatches(cached []models.Project, stamps []repositories.ProjectStamp) bool {
	if len(cached) != len(stamps) {
		return false
	}

	revisions := make(map[uuid.UUID]time.Time, len(stamps))
	for _, stamp := range stamps {
		revisions[stamp.ID] = stamp.UpdatedAt
	}
	for _, project := range cached {
		updatedAt, ok := revisions[project.ID]
		if !ok || !updatedAt.Equal(project.UpdatedAt) {
			return false
		}
	}
	return true
}

func (s *CachedProjectService) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}
