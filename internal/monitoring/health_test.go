package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthRouter(h *HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.HealthHandler())
	r.GET("/health/ready", h.ReadinessHandler())
	r.GET("/health/live", h.LivenessHandler())
	return r
}

func TestHealthChecker_AllHealthy(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.Register("database", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return nil })

	w := httptest.NewRecorder()
	newHealthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string                 `json:"status"`
		Checks map[string]HealthCheck `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Len(t, body.Checks, 2)
}

func TestHealthChecker_FailingCheck(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.Register("database", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	router := newHealthRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not ready")
}

func TestHealthChecker_ChecksRerunEachTime(t *testing.T) {
	h := NewHealthChecker(time.Second)
	calls := 0
	h.Register("counter", func(ctx context.Context) error {
		calls++
		return nil
	})

	h.Run(context.Background())
	h.Run(context.Background())

	assert.Equal(t, 2, calls)
}

func TestHealthChecker_Timeout(t *testing.T) {
	h := NewHealthChecker(10 * time.Millisecond)
	h.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	results := h.Run(context.Background())
	assert.Equal(t, StatusUnhealthy, results["slow"].Status)
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	newHealthRouter(NewHealthChecker(0)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestHealthChecker_InfoSections(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.Register("database", func(ctx context.Context) error { return nil })

	w := httptest.NewRecorder()
	newHealthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotContains(t, w.Body.String(), `"info"`)

	h.RegisterInfo("project_cache", func() map[string]interface{} {
		return map[string]interface{}{"entries": 3}
	})

	w = httptest.NewRecorder()
	newHealthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Info map[string]map[string]float64 `json:"info"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body.Info["project_cache"]["entries"])
}
