package cache

import (
	"sync"
	"time"

	"project-tracker/backend/internal/monitoring"
)

const (
	levelL1 = "l1"
	levelL2 = "l2"
)

// LevelStats counts lookups answered or missed at one cache level.
type LevelStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// MetricsSnapshot is the JSON view served under the cache section of /health.
// FailedL2 counts Redis operations that errored or were refused by the
// breaker, keyed by operation.
type MetricsSnapshot struct {
	Levels   map[string]LevelStats `json:"levels"`
	FailedL2 map[string]int64      `json:"failed_l2"`
	Sets     int64                 `json:"sets"`
	Deletes  int64                 `json:"deletes"`
	Since    time.Time             `json:"since"`
}

// CacheMetrics keeps in-process counters for Snapshot and mirrors lookups to
// Prometheus.
type CacheMetrics struct {
	mu       sync.Mutex
	hits     map[string]int64
	misses   map[string]int64
	failedL2 map[string]int64
	sets     int64
	deletes  int64
	since    time.Time
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{
		hits:     make(map[string]int64),
		misses:   make(map[string]int64),
		failedL2: make(map[string]int64),
		since:    time.Now(),
	}
}

func (m *CacheMetrics) RecordHit(level string) {
	m.mu.Lock()
	m.hits[level]++
	m.mu.Unlock()
	monitoring.RecordCacheHit(level)
}

func (m *CacheMetrics) RecordMiss(level string) {
	m.mu.Lock()
	m.misses[level]++
	m.mu.Unlock()
	monitoring.RecordCacheMiss(level)
}

// RecordFailure counts an L2 operation ("get", "set", "delete") that did not
// reach Redis.
func (m *CacheMetrics) RecordFailure(op string) {
	m.mu.Lock()
	m.failedL2[op]++
	m.mu.Unlock()
}

func (m *CacheMetrics) RecordSet() {
	m.mu.Lock()
	m.sets++
	m.mu.Unlock()
}

func (m *CacheMetrics) RecordDelete() {
	m.mu.Lock()
	m.deletes++
	m.mu.Unlock()
}

func (m *CacheMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := MetricsSnapshot{
		Levels:   make(map[string]LevelStats, 2),
		FailedL2: make(map[string]int64, len(m.failedL2)),
		Sets:     m.sets,
		Deletes:  m.deletes,
		Since:    m.since,
	}
	for _, level := range []string{levelL1, levelL2} {
		stats := LevelStats{Hits: m.hits[level], Misses: m.misses[level]}
		if total := stats.Hits + stats.Misses; total > 0 {
			stats.HitRate = float64(stats.Hits) / float64(total)
		}
		snapshot.Levels[level] = stats
	}
	for op, n := range m.failedL2 {
		snapshot.FailedL2[op] = n
	}
	return snapshot
}
