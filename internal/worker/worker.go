package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"project-tracker/backend/internal/monitoring"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type JobType string

const (
	JobTypeDomainEvent JobType = "domain_event"
)

const (
	DefaultQueue = "events"
	RetryQueue   = "retry_queue"
	DeadQueue    = "dead_queue"
)

var errNotDue = errors.New("job not due yet")

type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"max_tries"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ProcessAt time.Time       `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type Worker struct {
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queues       []string
	pollInterval time.Duration
	retryBase    time.Duration
	jobTimeout   time.Duration
	logger       *zap.Logger
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

type WorkerConfig struct {
	RedisClient  *redis.Client
	Concurrency  int
	PollInterval time.Duration
	Queues       []string
	RetryBase    time.Duration
	JobTimeout   time.Duration
	Logger       *zap.Logger
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.RetryBase <= 0 {
		config.RetryBase = time.Minute
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}
	if len(config.Queues) == 0 {
		config.Queues = []string{DefaultQueue, RetryQueue}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Worker{
		client:       config.RedisClient,
		handlers:     make(map[JobType]JobHandler),
		queues:       config.Queues,
		pollInterval: config.PollInterval,
		retryBase:    config.RetryBase,
		jobTimeout:   config.JobTimeout,
		logger:       config.Logger.Named("worker"),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	w.logger.Info("Starting worker",
		zap.Int("concurrency", concurrency),
		zap.Strings("queues", w.queues),
	)

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		err := w.ProcessNext(w.ctx)
		switch {
		case err == nil:
		case errors.Is(err, errNotDue):
			w.sleep(100 * time.Millisecond)
		case errors.Is(err, context.Canceled):
			return
		default:
			w.logger.Error("Error processing job", zap.Error(err))
			w.sleep(time.Second)
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

// ProcessNext pops one job, waiting up to the poll interval, and runs it.
// It returns nil when no job was available.
func (w *Worker) ProcessNext(ctx context.Context) error {
	result, err := w.client.BLPop(ctx, w.pollInterval, w.queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue := result[0]
	jobData := result[1]

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		w.logger.Error("Discarding malformed job", zap.String("queue", queue), zap.Error(err))
		return w.pushRaw(ctx, DeadQueue, []byte(jobData))
	}

	if time.Now().Before(job.ProcessAt) {
		if err := w.enqueueJob(ctx, queue, &job); err != nil {
			return err
		}
		return errNotDue
	}

	return w.executeJob(ctx, &job)
}

func (w *Worker) executeJob(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		monitoring.RecordWorkerJob(string(job.Type), "unhandled")
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	w.logger.Debug("Processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	err := handler(jobCtx, job)
	if err != nil {
		job.Attempts++
		job.LastError = err.Error()
		if job.Attempts < job.MaxTries {
			w.logger.Warn("Job failed, retrying",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempts),
				zap.Int("max_tries", job.MaxTries),
				zap.Error(err),
			)
			monitoring.RecordWorkerJob(string(job.Type), "retry")
			return w.retryJob(ctx, job)
		}

		w.logger.Error("Job failed permanently",
			zap.String("job_id", job.ID),
			zap.Int("attempts", job.Attempts),
			zap.Error(err),
		)
		monitoring.RecordWorkerJob(string(job.Type), "dead")
		return w.moveToDeadQueue(ctx, job, err)
	}

	monitoring.RecordWorkerJob(string(job.Type), "success")
	w.logger.Debug("Job completed", zap.String("job_id", job.ID))
	return nil
}

func (w *Worker) retryJob(ctx context.Context, job *Job) error {
	delay := w.retryBase * time.Duration(1<<(job.Attempts-1))
	job.ProcessAt = time.Now().Add(delay)

	return w.enqueueJob(ctx, RetryQueue, job)
}

func (w *Worker) enqueueJob(ctx context.Context, queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return w.pushRaw(ctx, queue, jobData)
}

func (w *Worker) pushRaw(ctx context.Context, queue string, data []byte) error {
	return w.client.RPush(ctx, queue, data).Err()
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.pushRaw(ctx, DeadQueue, deadJobData)
}

type JobQueue struct {
	client   *redis.Client
	maxTries int
}

func NewJobQueue(client *redis.Client, maxTries int) *JobQueue {
	if maxTries <= 0 {
		maxTries = 3
	}
	return &JobQueue{client: client, maxTries: maxTries}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload interface{}) error {
	return q.EnqueueAt(ctx, queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload interface{}, processAt time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}

	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Payload:   body,
		MaxTries:  q.maxTries,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return q.client.RPush(ctx, queue, jobData).Err()
}

func (q *JobQueue) GetQueueSize(ctx context.Context, queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}
