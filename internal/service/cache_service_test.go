package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

type brokenCacheRepo struct{ *fakeCacheRepo }

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection reset")
}

func TestCacheServiceDisabledIsAlwaysEmpty(t *testing.T) {
	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), statisticsCacheKey, &models.HistoryStatistics{})
	require.NoError(t, err)
	assert.False(t, hit)

	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)
	require.NoError(t, svc.Set(context.Background(), statisticsCacheKey, models.HistoryStatistics{}, 0))
	assert.Empty(t, repo.items)
	assert.Equal(t, defaultCacheTTL, svc.defaultTTL)
}

func TestCacheServiceCountsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newFakeCacheRepo(), metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var stats models.HistoryStatistics
	hit, err := svc.Get(ctx, statisticsCacheKey, &stats)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, statisticsCacheKey, models.HistoryStatistics{SubstitutionHours: []models.TeacherTotal{{Teacher: "E", Total: 3}}}, 0))
	hit, err = svc.Get(ctx, statisticsCacheKey, &stats)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, stats.SubstitutionHours[0].Total)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestCacheServiceSurfacesStoreErrors(t *testing.T) {
	svc := NewCacheService(&brokenCacheRepo{newFakeCacheRepo()}, nil, time.Minute, zap.NewNop(), true)
	hit, err := svc.Get(context.Background(), statisticsCacheKey, &models.HistoryStatistics{})
	assert.Error(t, err)
	assert.False(t, hit)
}
