package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"project-tracker/backend/internal/cache"
	"project-tracker/backend/internal/config"
	"project-tracker/backend/internal/database"
	"project-tracker/backend/internal/events"
	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/monitoring"
	"project-tracker/backend/internal/repositories"
	"project-tracker/backend/internal/services"
	"project-tracker/backend/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RouterTestSuite struct {
	suite.Suite
	pool   *database.DatabasePool
	engine *gin.Engine
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	pool, err := database.OpenSQLiteMemory()
	s.Require().NoError(err)
	s.pool = pool

	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { client.Close() })

	cfg := config.DefaultConfig()
	logger := zap.NewNop()
	repos := repositories.New(pool.DB)
	notifier := events.NopNotifier{}

	authz := services.NewAuthorizationService(repos.Projects, logger)
	auth := services.NewAuthService(repos.Users, session.NewRedisStore(client, "test-secret", time.Hour), bcrypt.MinCost, logger)
	cached := services.NewCachedProjectService(
		services.NewProjectService(repos.Projects, authz, notifier, logger),
		services.NewTaskService(repos.Tasks, authz, notifier, logger),
		repos.Projects,
		cache.NewMultiLevelCache(cache.NewRedisCache(client, "test:"), cache.MultiLevelConfig{Logger: logger}),
	)

	health := monitoring.NewHealthChecker(time.Second)
	health.Register("database", func(ctx context.Context) error { return pool.Health() })
	health.RegisterInfo("project_cache", cached.GetCacheStats)

	s.engine = New(Dependencies{
		Config:    cfg,
		Logger:    logger,
		Auth:      auth,
		Register:  services.NewRegisterService(repos.Users, bcrypt.MinCost, notifier, logger),
		Users:     services.NewUserService(repos.Users, notifier, logger),
		Projects:  cached,
		Tasks:     cached,
		UserCache: cached,
		Health:    health,
		Limiter:   middleware.NewIPRateLimiter(middleware.RateLimitConfig{RequestsPerMinute: 600, Burst: 100}),
	})
}

func (s *RouterTestSuite) TearDownTest() {
	s.pool.Close()
}

func (s *RouterTestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func (s *RouterTestSuite) signupAndLogin(name, email string) string {
	w, _ := s.do("POST", "/api/v1/signup", "", map[string]string{"name": name, "email": email, "password": "password123"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, body := s.do("POST", "/api/v1/login", "", map[string]string{"email": email, "password": "password123"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func (s *RouterTestSuite) TestEndToEndScenario() {
	token := s.signupAndLogin("Ada", "ada@example.com")

	w, body := s.do("POST", "/api/v1/projects", token, map[string]interface{}{
		"title":       "Thesis",
		"due_date":    "2025-01-01",
		"description": "Write it",
		"tasks":       []string{"Draft", "Review", ""},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	project := body["project"].(map[string]interface{})
	projectID := project["id"].(string)
	s.Len(project["tasks"], 2)

	w, body = s.do("GET", "/api/v1/projects/"+projectID, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(0), body["progress"])
	s.Equal("2025-01-01", body["due_date"])

	var draftID string
	for _, raw := range body["tasks"].([]interface{}) {
		task := raw.(map[string]interface{})
		if task["title"] == "Draft" {
			draftID = task["id"].(string)
		}
	}
	s.Require().NotEmpty(draftID)

	w, body = s.do("POST", "/api/v1/tasks/"+draftID+"/toggle", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, body["is_done"])

	w, body = s.do("GET", "/api/v1/projects/"+projectID, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(50), body["progress"])

	w, body = s.do("GET", "/api/v1/projects", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["total"])
	listed := body["projects"].([]interface{})[0].(map[string]interface{})
	s.Equal(float64(50), listed["progress"])
}

func (s *RouterTestSuite) TestUnauthenticatedRequests() {
	w, body := s.do("GET", "/api/v1/projects", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("unauthenticated", body["error"])

	w, _ = s.do("GET", "/api/v1/projects", "forged-token", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestLogoutInvalidatesToken() {
	token := s.signupAndLogin("Ada", "ada@example.com")

	w, _ := s.do("POST", "/api/v1/logout", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do("GET", "/api/v1/me", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestRefreshRotatesToken() {
	token := s.signupAndLogin("Ada", "ada@example.com")

	w, body := s.do("POST", "/api/v1/session/refresh", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	rotated := body["token"].(string)

	w, _ = s.do("GET", "/api/v1/me", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w, body = s.do("GET", "/api/v1/me", rotated, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("ada@example.com", body["email"])
}

func (s *RouterTestSuite) TestOwnershipAcrossUsers() {
	ada := s.signupAndLogin("Ada", "ada@example.com")
	mallory := s.signupAndLogin("Mallory", "mallory@example.com")

	w, body := s.do("POST", "/api/v1/projects", ada, map[string]interface{}{
		"title": "Thesis", "due_date": "2025-01-01", "description": "d", "tasks": []string{"Draft"},
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	projectID := body["project"].(map[string]interface{})["id"].(string)

	w, _ = s.do("GET", "/api/v1/projects/"+projectID, mallory, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do("DELETE", "/api/v1/projects/"+projectID, mallory, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, body = s.do("GET", "/api/v1/projects", mallory, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(0), body["total"])
}

func (s *RouterTestSuite) TestErrorStatuses() {
	w, body := s.do("POST", "/api/v1/signup", "", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "short"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation_error", body["error"])

	token := s.signupAndLogin("Ada", "ada@example.com")

	w, body = s.do("POST", "/api/v1/signup", "", map[string]string{"name": "Ada", "email": "ADA@example.com", "password": "password123"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("duplicate_email", body["error"])

	w, _ = s.do("POST", "/api/v1/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-password"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w, _ = s.do("POST", "/api/v1/projects", token, map[string]string{"title": "T", "due_date": "someday", "description": "d"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do("GET", "/api/v1/tasks/00000000-0000-0000-0000-000000000001", token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do("GET", "/api/v1/nowhere", token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) TestDeleteAccountCascades() {
	token := s.signupAndLogin("Ada", "ada@example.com")

	w, _ := s.do("POST", "/api/v1/projects", token, map[string]interface{}{
		"title": "Thesis", "due_date": "2025-01-01", "description": "d", "tasks": []string{"Draft", "Review"},
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w, _ = s.do("DELETE", "/api/v1/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do("GET", "/api/v1/projects", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	var projects, tasks int64
	s.Require().NoError(s.pool.DB.Table("projects").Count(&projects).Error)
	s.Require().NoError(s.pool.DB.Table("tasks").Count(&tasks).Error)
	s.Zero(projects)
	s.Zero(tasks)
}

func (s *RouterTestSuite) TestOperationalEndpoints() {
	w, _ := s.do("GET", "/health/live", "", nil)
	s.Equal(http.StatusOK, w.Code)

	w, body := s.do("GET", "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(monitoring.StatusHealthy, body["status"])
	info, ok := body["info"].(map[string]interface{})
	s.Require().True(ok, "health body carries an info section")
	projectCache, ok := info["project_cache"].(map[string]interface{})
	s.Require().True(ok)
	s.Contains(projectCache, "metrics")
	s.Contains(projectCache, "breaker")
	s.Contains(projectCache, "l2")

	w, _ = s.do("GET", "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "http_request_duration_seconds")
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
