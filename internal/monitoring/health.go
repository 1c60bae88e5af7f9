package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthCheckFunc func(ctx context.Context) error

// InfoFunc reports component state that never fails the health check.
type InfoFunc func() map[string]interface{}

type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	info      map[string]InfoFunc
	timeout   time.Duration
	startTime time.Time
}

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		info:      make(map[string]InfoFunc),
		timeout:   timeout,
		startTime: time.Now(),
	}
}

func (h *HealthChecker) Register(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RegisterInfo adds a section to the /health body under "info".
func (h *HealthChecker) RegisterInfo(name string, info InfoFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info[name] = info
}

func (h *HealthChecker) collectInfo() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sections := make(map[string]interface{}, len(h.info))
	for name, fn := range h.info {
		sections[name] = fn()
	}
	return sections
}

// Run executes every registered check with its own timeout.
func (h *HealthChecker) Run(ctx context.Context) map[string]HealthCheck {
	h.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(h.checks))
	for name, fn := range h.checks {
		checks[name] = fn
	}
	h.mu.RUnlock()

	results := make(map[string]HealthCheck, len(checks))
	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := fn(checkCtx)
		cancel()

		result := HealthCheck{Name: name, Status: StatusHealthy, LastRun: time.Now()}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		}
		results[name] = result
	}
	return results
}

func allHealthy(checks map[string]HealthCheck) bool {
	for _, check := range checks {
		if check.Status != StatusHealthy {
			return false
		}
	}
	return true
}

func (h *HealthChecker) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := h.Run(c.Request.Context())

		overall := StatusHealthy
		status := http.StatusOK
		if !allHealthy(checks) {
			overall = StatusUnhealthy
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":    overall,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(h.startTime).String(),
		}
		if info := h.collectInfo(); len(info) > 0 {
			body["info"] = info
		}
		c.JSON(status, body)
	}
}

func (h *HealthChecker) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if allHealthy(h.Run(c.Request.Context())) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ready",
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"timestamp": time.Now(),
		})
	}
}

func (h *HealthChecker) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(h.startTime).String(),
		})
	}
}
