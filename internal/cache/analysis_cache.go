// Package cache provides two-tier caching for generated analysis results:
// an in-process LRU for hot subjects and an optional Redis tier shared
// across server instances.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/domain"
)

// Stats represents cache performance counters.
type Stats struct {
	MemoryHits    int64     `json:"memory_hits"`
	MemoryMisses  int64     `json:"memory_misses"`
	RedisHits     int64     `json:"redis_hits"`
	RedisMisses   int64     `json:"redis_misses"`
	Sets          int64     `json:"sets"`
	Invalidations int64     `json:"invalidations"`
	ErrorCount    int64     `json:"error_count"`
	LastReset     time.Time `json:"last_reset"`
}

// Config holds cache construction settings.
type Config struct {
	// LocalSize is the LRU entry capacity of the memory tier.
	LocalSize int
	// TTL bounds entry freshness in both tiers.
	TTL time.Duration
}

type entry struct {
	result *domain.AnalysisResult
	expiry time.Time
}

func (e *entry) expired() bool {
	return time.Now().After(e.expiry)
}

// AnalysisCache caches analysis results keyed by subject ID. The memory tier
// always runs; the Redis tier is skipped when the client is nil.
type AnalysisCache struct {
	memory *lru.Cache[string, *entry]
	redis  *redis.Client
	ttl    time.Duration

	logger  *logrus.Logger
	stats   Stats
	statsMu sync.RWMutex
}

// NewAnalysisCache creates the two-tier cache. redisClient may be nil for
// standalone deployments.
func NewAnalysisCache(config Config, redisClient *redis.Client, logger *logrus.Logger) (*AnalysisCache, error) {
	if config.LocalSize <= 0 {
		config.LocalSize = 512
	}
	if config.TTL <= 0 {
		config.TTL = time.Hour
	}

	memory, err := lru.New[string, *entry](config.LocalSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &AnalysisCache{
		memory: memory,
		redis:  redisClient,
		ttl:    config.TTL,
		logger: logger,
		stats:  Stats{LastReset: time.Now()},
	}, nil
}

// Get returns the cached analysis for a subject, or nil on miss.
func (c *AnalysisCache) Get(ctx context.Context, subjectID string) *domain.AnalysisResult {
	if e, ok := c.memory.Get(subjectID); ok {
		if !e.expired() {
			c.increment(func(s *Stats) { s.MemoryHits++ })
			c.logger.WithFields(logrus.Fields{
				"subject_id": subjectID,
				"cache_tier": "memory",
			}).Debug("Cache hit")
			return e.result
		}
		c.memory.Remove(subjectID)
	}
	c.increment(func(s *Stats) { s.MemoryMisses++ })

	if c.redis == nil {
		return nil
	}

	payload, err := c.redis.Get(ctx, c.redisKey(subjectID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.increment(func(s *Stats) { s.ErrorCount++ })
			c.logger.WithError(err).Warn("Redis cache read failed")
		}
		c.increment(func(s *Stats) { s.RedisMisses++ })
		return nil
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		c.increment(func(s *Stats) { s.ErrorCount++ })
		c.logger.WithError(err).Warn("Discarding malformed cached analysis")
		c.increment(func(s *Stats) { s.RedisMisses++ })
		return nil
	}

	c.increment(func(s *Stats) { s.RedisHits++ })
	c.logger.WithFields(logrus.Fields{
		"subject_id": subjectID,
		"cache_tier": "redis",
	}).Debug("Cache hit")

	// Promote to the memory tier for next time.
	c.memory.Add(subjectID, &entry{result: &result, expiry: time.Now().Add(c.ttl)})
	return &result
}

// Set stores an analysis in both tiers.
func (c *AnalysisCache) Set(ctx context.Context, subjectID string, result *domain.AnalysisResult) {
	if result == nil {
		return
	}

	c.memory.Add(subjectID, &entry{result: result, expiry: time.Now().Add(c.ttl)})
	c.increment(func(s *Stats) { s.Sets++ })

	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.increment(func(s *Stats) { s.ErrorCount++ })
		c.logger.WithError(err).Warn("Failed to marshal analysis for cache")
		return
	}

	if err := c.redis.Set(ctx, c.redisKey(subjectID), payload, c.ttl).Err(); err != nil {
		c.increment(func(s *Stats) { s.ErrorCount++ })
		c.logger.WithError(err).Warn("Redis cache write failed")
	}
}

// Invalidate drops a subject's cached analysis from both tiers. Called when
// a new assessment arrives so the next read reflects it.
func (c *AnalysisCache) Invalidate(ctx context.Context, subjectID string) {
	c.memory.Remove(subjectID)
	c.increment(func(s *Stats) { s.Invalidations++ })

	if c.redis == nil {
		return
	}

	if err := c.redis.Del(ctx, c.redisKey(subjectID)).Err(); err != nil {
		c.increment(func(s *Stats) { s.ErrorCount++ })
		c.logger.WithError(err).Warn("Redis cache invalidation failed")
	}
}

// GetStats returns a snapshot of the cache counters.
func (c *AnalysisCache) GetStats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// Len returns the number of entries in the memory tier.
func (c *AnalysisCache) Len() int {
	return c.memory.Len()
}

func (c *AnalysisCache) redisKey(subjectID string) string {
	return "mdq:analysis:" + subjectID
}

func (c *AnalysisCache) increment(fn func(*Stats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	fn(&c.stats)
}
