package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickavail/backend/internal/domain"
)

var created = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func TestClampExpirationDays(t *testing.T) {
	cases := map[int]int{0: 7, -5: 1, 1: 1, 7: 7, 30: 30, 31: 30, 365: 30}
	for in, want := range cases {
		assert.Equal(t, want, domain.ClampExpirationDays(in), "input %d", in)
	}
}

func TestComputeExpiresAt_ExactDays(t *testing.T) {
	for days := domain.MinExpirationDays; days <= domain.MaxExpirationDays; days++ {
		exp := domain.ComputeExpiresAt(created, days)
		require.Equal(t, time.Duration(days)*24*time.Hour, exp.Sub(created))

		assert.False(t, domain.IsExpired(created, exp), "days=%d: fresh schedule", days)
		assert.False(t, domain.IsExpired(exp.Add(-time.Millisecond), exp), "days=%d: 1ms before", days)
		assert.True(t, domain.IsExpired(exp, exp), "days=%d: at expiry", days)
		assert.True(t, domain.IsExpired(exp.Add(time.Hour), exp), "days=%d: after expiry", days)
	}
}

// Crossing a DST change must not stretch or shrink the lifetime.
func TestComputeExpiresAt_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Clocks spring forward on 2024-03-10.
	start := time.Date(2024, time.March, 9, 12, 0, 0, 0, ny)

	exp := domain.ComputeExpiresAt(start, 1)

	assert.Equal(t, 24*time.Hour, exp.Sub(start))
	assert.Equal(t, 13, exp.In(ny).Hour(), "24h of wall-clock time lands at 13:00 local")
}

func TestTimeUntilExpiration(t *testing.T) {
	cases := []struct {
		name    string
		left    time.Duration
		days    int64
		hours   int64
		stage   domain.Stage
		message string
		warning *domain.Warning
	}{
		{
			name: "three days", left: 72 * time.Hour, days: 3, hours: 72,
			stage: domain.StageActive, message: "Expires in 3 days",
		},
		{
			name: "two days", left: 48 * time.Hour, days: 2, hours: 48,
			stage: domain.StageExpiringSoon, message: "Expires in 2 days",
			warning: &domain.Warning{Type: "soon", Title: "Expires Soon", Message: "This schedule expires in 2 days."},
		},
		{
			name: "a few hours", left: 5 * time.Hour, days: 1, hours: 5,
			stage: domain.StageExpiringSoon, message: "Expires tomorrow",
			warning: &domain.Warning{Type: "soon", Title: "Expires Soon", Message: "This schedule expires in 1 day."},
		},
		{
			name: "partial units round up", left: 25*time.Hour + time.Minute, days: 2, hours: 26,
			stage: domain.StageExpiringSoon, message: "Expires in 2 days",
			warning: &domain.Warning{Type: "soon", Title: "Expires Soon", Message: "This schedule expires in 2 days."},
		},
		{
			name: "exactly now", left: 0, days: 0, hours: 0,
			stage: domain.StageExpired, message: "This schedule has expired",
			warning: &domain.Warning{Type: "expired", Title: "Schedule Expired", Message: "This schedule has expired and may no longer be accurate."},
		},
		{
			name: "past", left: -90 * time.Minute, days: 0, hours: -1,
			stage: domain.StageExpired, message: "This schedule has expired",
			warning: &domain.Warning{Type: "expired", Title: "Schedule Expired", Message: "This schedule has expired and may no longer be accurate."},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := domain.TimeUntilExpiration(created, created.Add(c.left))
			assert.Equal(t, c.left, r.Delta)
			assert.Equal(t, c.days, r.Days)
			assert.Equal(t, c.hours, r.Hours)
			assert.Equal(t, c.stage, r.Stage())
			assert.Equal(t, c.message, r.Message())
			assert.Equal(t, c.warning, r.Warning())
			assert.Equal(t, c.message, domain.ExpirationMessage(created, created.Add(c.left)))
		})
	}
}

func TestTimeUntilExpiration_Minutes(t *testing.T) {
	r := domain.TimeUntilExpiration(created, created.Add(90*time.Second))
	assert.Equal(t, int64(2), r.Minutes)
	assert.Equal(t, int64(1), r.Hours)
	assert.Equal(t, int64(1), r.Days)
}

func TestRemaining_ExpiringTodayMessages(t *testing.T) {
	hours := domain.Remaining{Hours: 5, Minutes: 300, IsExpiringToday: true}
	assert.Equal(t, domain.StageExpiringToday, hours.Stage())
	assert.Equal(t, "Expires in 5 hours", hours.Message())
	assert.Equal(t, &domain.Warning{Type: "today", Title: "Expires Today", Message: "This schedule expires in 5 hours."}, hours.Warning())

	assert.Equal(t, "Expires in 45 minutes",
		domain.Remaining{Hours: 1, Minutes: 45, IsExpiringToday: true}.Message())
	assert.Equal(t, "Expires in 1 minute",
		domain.Remaining{Hours: 1, Minutes: 1, IsExpiringToday: true}.Message())
}
