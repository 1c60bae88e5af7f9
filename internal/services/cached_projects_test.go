package services

import (
	"project-tracker/backend/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newRedisBackedCache returns a cached service over its own miniredis so the
// test can fail L2 writes and deletes on demand.
func (s *ServiceTestSuite) newRedisBackedCache() (*CachedProjectService, *miniredis.Miniredis) {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { client.Close() })

	multi := cache.NewMultiLevelCache(cache.NewRedisCache(client, "cache:"), cache.MultiLevelConfig{})
	return NewCachedProjectService(s.projects, s.tasks, s.repos.Projects, multi), mr
}

func (s *ServiceTestSuite) TestCachedProjectService_DeleteWhileRedisFails() {
	ada := s.registerUser("Ada", "ada@example.com")
	cached, mr := s.newRedisBackedCache()
	project := s.createThesis(ada.ID)

	_, err := cached.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.Require().NoError(err)
	_, err = cached.ListProjectsForUser(s.ctx, ada.ID)
	s.Require().NoError(err)

	mr.SetError("LOADING transient")
	s.Require().NoError(cached.DeleteProject(s.ctx, ada.ID, project.ID))
	mr.SetError("")
	s.True(mr.Exists("cache:"+projectKey(project.ID)), "the failed eviction leaves the L2 copy behind")

	_, err = cached.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.ErrorIs(err, ErrNotFound)
	s.False(mr.Exists("cache:"+projectKey(project.ID)), "a hit on a deleted project evicts it")

	list, err := cached.ListProjectsForUser(s.ctx, ada.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *ServiceTestSuite) TestCachedProjectService_ToggleWhileRedisFails() {
	ada := s.registerUser("Ada", "ada@example.com")
	cached, mr := s.newRedisBackedCache()
	project := s.createThesis(ada.ID)

	detail, err := cached.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.Require().NoError(err)
	s.Equal(0, detail.Progress)
	list, err := cached.ListProjectsForUser(s.ctx, ada.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	mr.SetError("LOADING transient")
	_, err = cached.ToggleTask(s.ctx, ada.ID, detail.Tasks[0].ID)
	s.Require().NoError(err)
	mr.SetError("")

	toggled := detail.Tasks[0].ID
	detail, err = cached.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.Require().NoError(err)
	s.Equal(50, detail.Progress)

	list, err = cached.ListProjectsForUser(s.ctx, ada.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	for _, task := range list[0].Tasks {
		s.Equal(task.ID == toggled, task.IsDone, task.Title)
	}
}

func (s *ServiceTestSuite) TestCachedProjectService_OtherInstanceWrites() {
	ada := s.registerUser("Ada", "ada@example.com")
	reader := NewCachedProjectService(s.projects, s.tasks, s.repos.Projects, cache.NewMultiLevelCache(nil, cache.MultiLevelConfig{}))
	writer := NewCachedProjectService(s.projects, s.tasks, s.repos.Projects, cache.NewMultiLevelCache(nil, cache.MultiLevelConfig{}))

	project := s.createThesis(ada.ID)
	garden, err := writer.CreateProject(s.ctx, ada.ID, CreateProjectInput{Title: "Garden", DueDate: "2025-05-01", Description: "d"})
	s.Require().NoError(err)

	_, err = reader.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.Require().NoError(err)
	list, err := reader.ListProjectsForUser(s.ctx, ada.ID)
	s.Require().NoError(err)
	s.Len(list, 2)

	title := "Thesis v2"
	_, err = writer.UpdateProject(s.ctx, ada.ID, project.ID, ProjectPatch{Title: &title})
	s.Require().NoError(err)

	detail, err := reader.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.Require().NoError(err)
	s.Equal("Thesis v2", detail.Project.Title)

	s.Require().NoError(writer.DeleteProject(s.ctx, ada.ID, garden.ID))
	list, err = reader.ListProjectsForUser(s.ctx, ada.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(project.ID, list[0].ID)
}

func (s *ServiceTestSuite) TestCachedProjectService_ForgetUser() {
	ada := s.registerUser("Ada", "ada@example.com")
	mallory := s.registerUser("Mallory", "mallory@example.com")
	cached := NewCachedProjectService(s.projects, s.tasks, s.repos.Projects, cache.NewMultiLevelCache(nil, cache.MultiLevelConfig{}))
	project := s.createThesis(ada.ID)

	_, err := cached.ListProjectsForUser(s.ctx, ada.ID)
	s.Require().NoError(err)
	_, err = cached.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.users.DeleteUser(s.ctx, ada.ID))
	cached.ForgetUser(s.ctx, ada.ID)

	_, err = cached.GetProjectWithProgress(s.ctx, mallory.ID, project.ID)
	s.ErrorIs(err, ErrNotFound)
	s.NotErrorIs(err, ErrForbidden)
}

func (s *ServiceTestSuite) TestCachedProjectService_DeletedOwnerWithoutEviction() {
	ada := s.registerUser("Ada", "ada@example.com")
	mallory := s.registerUser("Mallory", "mallory@example.com")
	cached := NewCachedProjectService(s.projects, s.tasks, s.repos.Projects, cache.NewMultiLevelCache(nil, cache.MultiLevelConfig{}))
	project := s.createThesis(ada.ID)

	_, err := cached.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.Require().NoError(err)

	// the account is removed through another process, so nothing is evicted here
	s.Require().NoError(s.users.DeleteUser(s.ctx, ada.ID))

	_, err = cached.GetProjectWithProgress(s.ctx, mallory.ID, project.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = cached.GetProjectWithProgress(s.ctx, ada.ID, project.ID)
	s.ErrorIs(err, ErrNotFound)
}
