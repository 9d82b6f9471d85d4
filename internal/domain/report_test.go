package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickavail/backend/internal/domain"
)

func TestBucketExpirations(t *testing.T) {
	now := cleanupNow
	in := func(h float64) time.Time { return now.Add(time.Duration(h * float64(time.Hour))) }

	got := domain.BucketExpirations(now, []time.Time{
		in(1), in(12), // 0
		in(36),        // 1
		in(60),        // 2
		in(5 * 24),    // 3
		in(10 * 24),   // 7
		in(20 * 24),   // 14
		in(30 * 24),   // 30+
		in(45 * 24),   // 30+
		in(-1),        // already expired, skipped
	})

	assert.Equal(t, []domain.ExpirationBucket{
		{Bucket: "0", Count: 2},
		{Bucket: "1", Count: 1},
		{Bucket: "2", Count: 1},
		{Bucket: "3", Count: 1},
		{Bucket: "7", Count: 1},
		{Bucket: "14", Count: 1},
		{Bucket: "30+", Count: 2},
	}, got)
}

func TestBucketExpirations_OmitsEmptyBuckets(t *testing.T) {
	got := domain.BucketExpirations(cleanupNow, []time.Time{cleanupNow.Add(4 * 24 * time.Hour)})
	assert.Equal(t, []domain.ExpirationBucket{{Bucket: "3", Count: 1}}, got)

	none := domain.BucketExpirations(cleanupNow, nil)
	require.NotNil(t, none)
	assert.Empty(t, none)
}

func TestNewUsageSummary(t *testing.T) {
	u := domain.NewUsageSummary(domain.ViewStats{
		TotalViews:         10,
		AverageViews:       10.0 / 3.0,
		MaxViews:           5,
		SchedulesWithViews: 2,
	}, 3)

	assert.Equal(t, int64(10), u.TotalViews)
	assert.InDelta(t, 3.33, u.AverageViews, 1e-9)
	assert.Equal(t, int64(5), u.MaxViews)
	assert.Equal(t, int64(2), u.SchedulesWithViews)
	assert.Equal(t, int64(67), u.UsageRate)

	assert.Zero(t, domain.NewUsageSummary(domain.ViewStats{}, 0).UsageRate)
}

func TestRecommend(t *testing.T) {
	none := domain.Recommend(domain.UsageOverview{TotalSchedules: 10, UnusedSchedules: 5})
	require.NotNil(t, none)
	assert.Empty(t, none)

	recs := domain.Recommend(domain.UsageOverview{TotalSchedules: 1001, ExpiredSchedules: 2, UnusedSchedules: 6})
	require.Len(t, recs, 3)
	assert.Equal(t, "cleanup", recs[0].Type)
	assert.Equal(t, "medium", recs[0].Priority)
	assert.Equal(t, "2 expired schedules can be cleaned up", recs[0].Message)
	assert.Equal(t, "optimization", recs[1].Type)
	assert.Equal(t, "6 schedules created >24h ago have no views", recs[1].Message)
	assert.Equal(t, "performance", recs[2].Type)
	assert.Equal(t, "high", recs[2].Priority)
}
