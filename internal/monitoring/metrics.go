package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	DomainOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_tracker_operations_total",
			Help: "Domain operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_tracker_cache_requests_total",
			Help: "Cache lookups by level and result",
		},
		[]string{"level", "result"},
	)

	WorkerJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_tracker_worker_jobs_total",
			Help: "Background jobs by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	if table == "" {
		table = "unknown"
	}
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordOperation counts a domain operation; outcome is "success" or an error code.
func RecordOperation(operation, outcome string) {
	DomainOperations.WithLabelValues(operation, outcome).Inc()
}

func RecordCacheHit(level string) {
	CacheRequests.WithLabelValues(level, "hit").Inc()
}

func RecordCacheMiss(level string) {
	CacheRequests.WithLabelValues(level, "miss").Inc()
}

func RecordWorkerJob(jobType, outcome string) {
	WorkerJobs.WithLabelValues(jobType, outcome).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPActiveRequests.Inc()

		c.Next()

		HTTPActiveRequests.Dec()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
