package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickavail/backend/internal/domain"
	"github.com/quickavail/backend/internal/repo"
)

// now anchors every fixture. It lies in the future so that the mongo TTL
// monitor, which runs on the wall clock, never removes a fixture mid-test.
var now = time.Date(2035, 3, 10, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func entry(slots ...domain.QuickSlotID) domain.DayEntry {
	return domain.DayEntry{QuickSlots: slots, CustomSlots: []domain.CustomSlot{}}
}

// newSchedule builds a valid schedule created at createdAt with a 7 day
// lifetime and the given view count.
func newSchedule(t *testing.T, id string, createdAt time.Time, views int, selected domain.SelectedDates) domain.Schedule {
	t.Helper()
	s, err := domain.NewSchedule(domain.NewScheduleInput{
		PersonName:      "Person " + id,
		PersonEmail:     id + "@example.com",
		SelectedProject: "general",
		Projects:        domain.DefaultProjects(),
		SelectedDates:   selected,
		UserTimezone:    "America/New_York",
	}, id, createdAt)
	require.NoError(t, err)
	s.ViewCount = views
	return s
}

// seed stores three schedules:
//
//	old-expired  created 40 days ago, expired 33 days ago, 0 views, general 3h
//	recent-quiet created 2 days ago, expires in 5 days, 1 view, general 5h + team 3h
//	fresh-busy   created 1 hour ago, expires in ~7 days, 3 views, team 8h
func seed(t *testing.T, r repo.ScheduleRepo) (oldExpired, recentQuiet, freshBusy domain.Schedule) {
	t.Helper()
	ctx := context.Background()

	oldExpired = newSchedule(t, "old-expired", now.Add(-40*day), 0, domain.SelectedDates{
		"general": {"2025-01-29": entry(domain.QuickSlotMorning)},
	})
	recentQuiet = newSchedule(t, "recent-quiet", now.Add(-2*day), 1, domain.SelectedDates{
		"general": {"2025-03-11": entry(domain.QuickSlotAfternoon)},
		"team":    {"2025-03-12": entry(domain.QuickSlotEvening)},
	})
	freshBusy = newSchedule(t, "fresh-busy", now.Add(-time.Hour), 3, domain.SelectedDates{
		"team": {"2025-03-13": entry(domain.QuickSlotMorning, domain.QuickSlotAfternoon)},
	})

	for _, s := range []domain.Schedule{oldExpired, recentQuiet, freshBusy} {
		require.NoError(t, r.Create(ctx, s))
	}
	return oldExpired, recentQuiet, freshBusy
}

// runScheduleRepoContract checks the behaviour every ScheduleRepo backend
// must share. newRepo must return an empty, ready store on every call.
func runScheduleRepoContract(t *testing.T, newRepo func(t *testing.T) repo.ScheduleRepo) {
	ctx := context.Background()

	t.Run("create and get round-trip", func(t *testing.T) {
		r := newRepo(t)
		selected := domain.SelectedDates{
			"general": {"2025-03-12": entry(domain.QuickSlotMorning)},
		}
		selected, err := selected.AddCustomSlot("client", "2025-03-14", "13:15", "14:45")
		require.NoError(t, err)
		want := newSchedule(t, "roundtrip1", now, 0, selected)

		require.NoError(t, r.Create(ctx, want))

		got, err := r.GetByShareID(ctx, "roundtrip1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, 4.5, got.Analytics.TotalHours)
		assert.Equal(t, []string{"client", "general"}, got.Analytics.ProjectsUsed)
	})

	t.Run("duplicate share id conflicts", func(t *testing.T) {
		r := newRepo(t)
		s := newSchedule(t, "duplicate", now, 0, domain.SelectedDates{"general": {"2025-03-12": entry(domain.QuickSlotMorning)}})
		require.NoError(t, r.Create(ctx, s))

		err := r.Create(ctx, s)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.GetByShareID(ctx, "does-not-exist")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("record view increments atomically", func(t *testing.T) {
		r := newRepo(t)
		s := newSchedule(t, "viewed-one", now, 0, domain.SelectedDates{"general": {"2025-03-12": entry(domain.QuickSlotMorning)}})
		require.NoError(t, r.Create(ctx, s))

		n, err := r.RecordView(ctx, s.ShareID, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		seen := now.Add(2 * time.Minute)
		n, err = r.RecordView(ctx, s.ShareID, seen)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := r.GetByShareID(ctx, s.ShareID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.ViewCount)
		assert.True(t, seen.Equal(got.LastViewedAt), "lastViewedAt = %v", got.LastViewedAt)
	})

	t.Run("record view on missing returns not found", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.RecordView(ctx, "does-not-exist", now)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("count by filter", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r)

		cases := map[string]struct {
			filter domain.ScheduleFilter
			want   int64
		}{
			"all":           {domain.ScheduleFilter{}, 3},
			"expired":       {domain.ExpiredFilter(now), 1},
			"active":        {domain.ActiveFilter(now), 2},
			"old":           {domain.OldFilter(now, 30), 1},
			"unused":        {domain.UnusedFilter(now), 2},
			"created 7days": {domain.CreatedSinceFilter(now.Add(-7 * day)), 2},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				n, err := r.Count(ctx, tc.filter)
				require.NoError(t, err)
				assert.Equal(t, tc.want, n)
			})
		}
	})

	t.Run("sample orders by creation and honours the limit", func(t *testing.T) {
		r := newRepo(t)
		oldExpired, recentQuiet, _ := seed(t, r)

		got, err := r.Sample(ctx, domain.UnusedFilter(now), 5)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, oldExpired.Summary(), got[0])
		assert.Equal(t, recentQuiet.Summary(), got[1])

		got, err = r.Sample(ctx, domain.ScheduleFilter{}, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, oldExpired.ShareID, got[0].ShareID)

		got, err = r.Sample(ctx, domain.OldFilter(now, 365), 5)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("delete matching removes only the selection", func(t *testing.T) {
		r := newRepo(t)
		oldExpired, _, freshBusy := seed(t, r)

		n, err := r.DeleteMatching(ctx, domain.ExpiredFilter(now))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = r.GetByShareID(ctx, oldExpired.ShareID)
		require.ErrorIs(t, err, domain.ErrNotFound)

		total, err := r.Count(ctx, domain.ScheduleFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		n, err = r.DeleteMatching(ctx, domain.ExpiredFilter(now))
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = r.GetByShareID(ctx, freshBusy.ShareID)
		require.NoError(t, err)
	})

	t.Run("view stats", func(t *testing.T) {
		r := newRepo(t)

		empty, err := r.ViewStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ViewStats{}, empty)

		seed(t, r)
		st, err := r.ViewStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), st.TotalViews)
		assert.InDelta(t, 4.0/3.0, st.AverageViews, 1e-9)
		assert.Equal(t, int64(3), st.MaxViews)
		assert.Equal(t, int64(1), st.SchedulesWithViews)
	})

	t.Run("active expirations", func(t *testing.T) {
		r := newRepo(t)
		_, recentQuiet, freshBusy := seed(t, r)

		got, err := r.ActiveExpirations(ctx, now)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, recentQuiet.ExpiresAt.Equal(got[0]))
		assert.True(t, freshBusy.ExpiresAt.Equal(got[1]))
	})

	t.Run("project usage", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r)

		got, err := r.ProjectUsage(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []domain.ProjectUsage{
			{ProjectID: "general", Count: 2, TotalHours: 11},
			{ProjectID: "team", Count: 2, TotalHours: 16},
		}, got)

		got, err = r.ProjectUsage(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "general", got[0].ProjectID)
	})
}
