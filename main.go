package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-tracker/backend/internal/cache"
	"project-tracker/backend/internal/config"
	"project-tracker/backend/internal/database"
	"project-tracker/backend/internal/events"
	"project-tracker/backend/internal/logging"
	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/monitoring"
	"project-tracker/backend/internal/repositories"
	"project-tracker/backend/internal/router"
	"project-tracker/backend/internal/services"
	"project-tracker/backend/internal/session"
	"project-tracker/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type application struct {
	engine    *gin.Engine
	pool      *database.DatabasePool
	redis     *redis.Client
	publisher events.Publisher
	worker    *worker.Worker
	limiter   *middleware.IPRateLimiter
	logger    *zap.Logger
}

// newApplication wires storage, sessions, events and services into an HTTP
// engine. The caller owns redisClient.
func newApplication(cfg *config.Config, logger *zap.Logger, redisClient *redis.Client) (*application, error) {
	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	app := &application{pool: pool, redis: redisClient, logger: logger}

	app.publisher = events.NewLogPublisher(logger)
	if cfg.Events.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to message broker: %w", err)
		}
		app.publisher = amqpPublisher
	}

	var notifier events.Notifier = events.NewPublisherNotifier(app.publisher, logger)
	if cfg.Worker.Enabled {
		app.worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  redisClient,
			Concurrency:  cfg.Worker.Concurrency,
			PollInterval: cfg.Worker.PollInterval,
			Queues:       cfg.Worker.Queues,
			Logger:       logger,
		})
		app.worker.RegisterHandler(worker.JobTypeDomainEvent, worker.PublishEventHandler(app.publisher))
		notifier = worker.NewEventNotifier(worker.NewJobQueue(redisClient, cfg.Worker.MaxTries), worker.DefaultQueue, logger)
	}

	repos := repositories.New(pool.DB)
	sessions := session.NewRedisStore(redisClient, cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	authz := services.NewAuthorizationService(repos.Projects, logger)

	projectCache := cache.NewMultiLevelCache(
		cache.NewRedisCache(redisClient, "project_tracker:cache:"),
		cache.MultiLevelConfig{L1MaxEntries: 10000, L1TTL: time.Minute, Logger: logger},
	)
	cached := services.NewCachedProjectService(
		services.NewProjectService(repos.Projects, authz, notifier, logger),
		services.NewTaskService(repos.Tasks, authz, notifier, logger),
		repos.Projects,
		projectCache,
	)

	health := monitoring.NewHealthChecker(5 * time.Second)
	health.Register("database", func(ctx context.Context) error { return pool.Health() })
	health.Register("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	health.RegisterInfo("project_cache", cached.GetCacheStats)
	if amqpPublisher, ok := app.publisher.(*events.AMQPPublisher); ok {
		health.Register("message_broker", func(ctx context.Context) error {
			if !amqpPublisher.IsConnected() {
				return errors.New("broker connection closed")
			}
			return nil
		})
	}

	if cfg.RateLimit.Enabled {
		app.limiter = middleware.NewIPRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMin,
			Burst:             cfg.RateLimit.BurstSize,
			CleanupInterval:   cfg.RateLimit.CleanupInterval,
		})
	}

	app.engine = router.New(router.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Auth:      services.NewAuthService(repos.Users, sessions, cfg.Auth.BCryptCost, logger),
		Register:  services.NewRegisterService(repos.Users, cfg.Auth.BCryptCost, notifier, logger),
		Users:     services.NewUserService(repos.Users, notifier, logger),
		Projects:  cached,
		Tasks:     cached,
		UserCache: cached,
		Health:    health,
		Limiter:   app.limiter,
	})

	return app, nil
}

func (a *application) close() {
	if a.worker != nil {
		a.worker.Stop()
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("Failed to close event publisher", zap.Error(err))
	}
	if err := a.pool.Close(); err != nil {
		a.logger.Warn("Failed to close database", zap.Error(err))
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting project tracker",
		zap.String("environment", cfg.Server.Environment),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("redis_addr", cfg.GetRedisAddr()),
		zap.Bool("worker_enabled", cfg.Worker.Enabled),
		zap.Bool("amqp_enabled", cfg.Events.AMQPURL != ""),
	)

	redisClient := cache.NewRedisClient(cache.CacheConfigFrom(cfg))
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	cancelPing()

	app, err := newApplication(cfg, log, redisClient)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.worker != nil {
		app.worker.Start(cfg.Worker.Concurrency)
	}
	if app.limiter != nil {
		go app.limiter.RunCleanup(ctx)
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      app.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
