package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
	l1TTL   time.Duration
	metrics *CacheMetrics
	logger  *zap.Logger
}

type MultiLevelConfig struct {
	L1MaxEntries int
	L1TTL        time.Duration
	Breaker      *CircuitBreakerConfig
	Logger       *zap.Logger
}

// NewMultiLevelCache layers an in-process cache over Redis. A nil redisCache
// gives an L1-only cache.
func NewMultiLevelCache(redisCache *RedisCache, cfg MultiLevelConfig) *MultiLevelCache {
	if cfg.L1TTL <= 0 {
		cfg.L1TTL = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Breaker == nil {
		cfg.Breaker = DefaultCircuitBreakerConfig()
	}
	cfg.Breaker.Logger = cfg.Logger

	return &MultiLevelCache{
		l1:      NewMemoryCache(cfg.L1MaxEntries),
		l2:      redisCache,
		breaker: NewCircuitBreaker(cfg.Breaker),
		l1TTL:   cfg.L1TTL,
		metrics: NewCacheMetrics(),
		logger:  cfg.Logger.Named("cache"),
	}
}

func (c *MultiLevelCache) l1Expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.l1TTL {
		return c.l1TTL
	}
	return ttl
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(key, value, c.l1Expiry(ttl)); err != nil {
		return err
	}
	c.metrics.RecordSet()

	if c.l2 == nil {
		return nil
	}

	err := c.breaker.Execute(func() error {
		return c.l2.Set(ctx, key, value, ttl)
	})
	if err != nil {
		c.metrics.RecordFailure("set")
		c.logger.Debug("L2 set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Get fills dest from L1, then L2. Any L2 failure is reported as ErrCacheMiss.
func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(key, dest); err == nil {
		c.metrics.RecordHit(levelL1)
		return nil
	}
	c.metrics.RecordMiss(levelL1)

	if c.l2 == nil {
		return ErrCacheMiss
	}

	missed := false
	err := c.breaker.Execute(func() error {
		err := c.l2.Get(ctx, key, dest)
		if errors.Is(err, ErrCacheMiss) {
			missed = true
			return nil
		}
		return err
	})
	if err != nil {
		c.metrics.RecordFailure("get")
		c.logger.Debug("L2 get failed", zap.String("key", key), zap.Error(err))
		return ErrCacheMiss
	}
	if missed {
		c.metrics.RecordMiss(levelL2)
		return ErrCacheMiss
	}

	c.metrics.RecordHit(levelL2)
	_ = c.l1.Set(key, dest, c.l1TTL)
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	c.l1.Delete(keys...)
	c.metrics.RecordDelete()

	if c.l2 == nil {
		return nil
	}

	err := c.breaker.Execute(func() error {
		return c.l2.Delete(ctx, keys...)
	})
	if err != nil {
		c.metrics.RecordFailure("delete")
		c.logger.Warn("L2 delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
	return err
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	c.l1.DeletePattern(pattern)
	c.metrics.RecordDelete()

	if c.l2 == nil {
		return nil
	}

	err := c.breaker.Execute(func() error {
		return c.l2.DeletePattern(ctx, pattern)
	})
	if err != nil {
		c.metrics.RecordFailure("delete")
		c.logger.Warn("L2 pattern delete failed", zap.String("pattern", pattern), zap.Error(err))
	}
	return err
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":      c.l1.Stats(),
		"metrics": c.metrics.Snapshot(),
		"breaker": c.breaker.GetStats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 != nil {
		return c.l2.Health(ctx)
	}
	return nil
}
