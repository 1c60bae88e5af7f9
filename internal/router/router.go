package router

import (
	"net/http"
	"time"

	"project-tracker/backend/internal/config"
	"project-tracker/backend/internal/handlers"
	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/monitoring"
	"project-tracker/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Auth      services.AuthService
	Register  services.RegisterService
	Users     services.UserService
	Projects  services.ProjectService
	Tasks     services.TaskService
	UserCache handlers.UserCache
	Health    *monitoring.HealthChecker
	// Limiter guards signup and login. Nil disables rate limiting.
	Limiter *middleware.IPRateLimiter
}

func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RecoveryWithLog(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(monitoring.MetricsMiddleware())

	if len(cfg.Server.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if deps.Health != nil {
		r.GET("/health", deps.Health.HealthHandler())
		r.GET("/health/live", deps.Health.LivenessHandler())
		r.GET("/health/ready", deps.Health.ReadinessHandler())
	}
	r.GET("/metrics", monitoring.MetricsHandler())

	cookie := handlers.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	authHandler := handlers.NewAuthHandler(deps.Auth, cookie, logger)
	registerHandler := handlers.NewRegisterHandler(deps.Register, logger)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Auth, deps.UserCache, cookie, logger)
	projectHandler := handlers.NewProjectHandler(deps.Projects, deps.Tasks, logger)
	taskHandler := handlers.NewTaskHandler(deps.Tasks, logger)

	api := r.Group("/api/v1")

	public := api.Group("")
	if deps.Limiter != nil {
		public.Use(middleware.RateLimit(deps.Limiter))
	}
	public.POST("/signup", registerHandler.Registration)
	public.POST("/login", authHandler.Login)

	api.POST("/logout", authHandler.Logout)
	api.POST("/session/refresh", authHandler.Refresh)

	protected := api.Group("")
	protected.Use(middleware.RequireSession(deps.Auth, middleware.SessionConfig{CookieName: cfg.Auth.CookieName}))
	{
		protected.GET("/me", userHandler.GetUserProfile)
		protected.DELETE("/me", userHandler.DeleteUser)

		protected.GET("/projects", projectHandler.ListProjects)
		protected.POST("/projects", projectHandler.CreateProject)
		protected.GET("/projects/:id", projectHandler.GetProject)
		protected.PUT("/projects/:id", projectHandler.UpdateProject)
		protected.DELETE("/projects/:id", projectHandler.DeleteProject)
		protected.POST("/projects/:id/tasks", projectHandler.AddTask)

		protected.GET("/tasks/:id", taskHandler.GetTaskByID)
		protected.PUT("/tasks/:id", taskHandler.UpdateTask)
		protected.POST("/tasks/:id/toggle", taskHandler.ToggleTask)
		protected.DELETE("/tasks/:id", taskHandler.DeleteTask)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Route not found",
		})
	})

	return r
}
