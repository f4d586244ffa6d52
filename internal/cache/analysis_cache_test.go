package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdq-screening-server/internal/domain"
)

func newTestCache(t *testing.T, config Config) *AnalysisCache {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c, err := NewAnalysisCache(config, nil, logger)
	require.NoError(t, err)
	return c
}

func analysisFixture(subjectID string) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ID:          "an-" + subjectID,
		SubjectID:   subjectID,
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Scheme:      domain.FIVE_LEVEL,
		Classification: domain.Classification{
			Severity:       domain.MODERATE_RISK,
			RiskPercentage: 41.5,
		},
	}
}

func TestAnalysisCache_SetAndGet(t *testing.T) {
	c := newTestCache(t, Config{LocalSize: 8, TTL: time.Minute})
	ctx := context.Background()

	assert.Nil(t, c.Get(ctx, "subject-1"), "empty cache must miss")

	result := analysisFixture("subject-1")
	c.Set(ctx, "subject-1", result)

	cached := c.Get(ctx, "subject-1")
	require.NotNil(t, cached)
	assert.Equal(t, result.ID, cached.ID)
	assert.Equal(t, domain.MODERATE_RISK, cached.Classification.Severity)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.MemoryHits)
	assert.Equal(t, int64(1), stats.MemoryMisses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestAnalysisCache_Expiry(t *testing.T) {
	c := newTestCache(t, Config{LocalSize: 8, TTL: 10 * time.Millisecond})
	ctx := context.Background()

	c.Set(ctx, "subject-1", analysisFixture("subject-1"))
	time.Sleep(20 * time.Millisecond)

	assert.Nil(t, c.Get(ctx, "subject-1"), "expired entries must miss")
	assert.Zero(t, c.Len(), "expired entries are evicted on read")
}

func TestAnalysisCache_Invalidate(t *testing.T) {
	c := newTestCache(t, Config{LocalSize: 8, TTL: time.Minute})
	ctx := context.Background()

	c.Set(ctx, "subject-1", analysisFixture("subject-1"))
	c.Invalidate(ctx, "subject-1")

	assert.Nil(t, c.Get(ctx, "subject-1"))
	assert.Equal(t, int64(1), c.GetStats().Invalidations)
}

func TestAnalysisCache_LRUEviction(t *testing.T) {
	c := newTestCache(t, Config{LocalSize: 2, TTL: time.Minute})
	ctx := context.Background()

	c.Set(ctx, "subject-1", analysisFixture("subject-1"))
	c.Set(ctx, "subject-2", analysisFixture("subject-2"))
	c.Set(ctx, "subject-3", analysisFixture("subject-3"))

	assert.Equal(t, 2, c.Len())
	assert.Nil(t, c.Get(ctx, "subject-1"), "oldest entry must be evicted")
	assert.NotNil(t, c.Get(ctx, "subject-3"))
}

func TestAnalysisCache_NilResultIgnored(t *testing.T) {
	c := newTestCache(t, Config{LocalSize: 8, TTL: time.Minute})
	ctx := context.Background()

	c.Set(ctx, "subject-1", nil)

	assert.Zero(t, c.Len())
	assert.Zero(t, c.GetStats().Sets)
}

func TestAnalysisCache_DefaultConfig(t *testing.T) {
	c := newTestCache(t, Config{})

	assert.Equal(t, time.Hour, c.ttl)
	c.Set(context.Background(), "subject-1", analysisFixture("subject-1"))
	assert.NotNil(t, c.Get(context.Background(), "subject-1"))
}
