package service_test

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/quickavail/backend/internal/domain"
	"github.com/quickavail/backend/internal/repo"
)

// mockScheduleRepo is a hand-written test double for repo.ScheduleRepo.
// Each method is a function field; set only the ones your test needs. A call
// to an unset method panics, which doubles as a "must not be called" assertion.
type mockScheduleRepo struct {
	create            func(ctx context.Context, s domain.Schedule) error
	getByShareID      func(ctx context.Context, shareID string) (domain.Schedule, error)
	recordView        func(ctx context.Context, shareID string, at time.Time) (int, error)
	count             func(ctx context.Context, f domain.ScheduleFilter) (int64, error)
	sample            func(ctx context.Context, f domain.ScheduleFilter, limit int) ([]domain.ScheduleSummary, error)
	deleteMatching    func(ctx context.Context, f domain.ScheduleFilter) (int64, error)
	viewStats         func(ctx context.Context) (domain.ViewStats, error)
	activeExpirations func(ctx context.Context, now time.Time) ([]time.Time, error)
	projectUsage      func(ctx context.Context, limit int) ([]domain.ProjectUsage, error)
}

func (m *mockScheduleRepo) Create(ctx context.Context, s domain.Schedule) error {
	return m.create(ctx, s)
}
func (m *mockScheduleRepo) GetByShareID(ctx context.Context, shareID string) (domain.Schedule, error) {
	return m.getByShareID(ctx, shareID)
}
func (m *mockScheduleRepo) RecordView(ctx context.Context, shareID string, at time.Time) (int, error) {
	return m.recordView(ctx, shareID, at)
}
func (m *mockScheduleRepo) Count(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	return m.count(ctx, f)
}
func (m *mockScheduleRepo) Sample(ctx context.Context, f domain.ScheduleFilter, limit int) ([]domain.ScheduleSummary, error) {
	return m.sample(ctx, f, limit)
}
func (m *mockScheduleRepo) DeleteMatching(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	return m.deleteMatching(ctx, f)
}
func (m *mockScheduleRepo) ViewStats(ctx context.Context) (domain.ViewStats, error) {
	return m.viewStats(ctx)
}
func (m *mockScheduleRepo) ActiveExpirations(ctx context.Context, now time.Time) ([]time.Time, error) {
	return m.activeExpirations(ctx, now)
}
func (m *mockScheduleRepo) ProjectUsage(ctx context.Context, limit int) ([]domain.ProjectUsage, error) {
	return m.projectUsage(ctx, limit)
}

// compile-time check: mockScheduleRepo must satisfy repo.ScheduleRepo.
var _ repo.ScheduleRepo = (*mockScheduleRepo)(nil)

// memoryRepo returns a mock whose filter queries run against schedules held in
// memory, so tests assert on what a filter selects rather than on its fields.
// Samples are ordered by creation time then share id, like the SQL stores.
func memoryRepo(schedules ...domain.Schedule) *mockScheduleRepo {
	stored := slices.Clone(schedules)
	matching := func(f domain.ScheduleFilter) []domain.Schedule {
		var out []domain.Schedule
		for _, s := range stored {
			if f.Matches(s) {
				out = append(out, s)
			}
		}
		return out
	}
	return &mockScheduleRepo{
		count: func(_ context.Context, f domain.ScheduleFilter) (int64, error) {
			return int64(len(matching(f))), nil
		},
		sample: func(_ context.Context, f domain.ScheduleFilter, limit int) ([]domain.ScheduleSummary, error) {
			found := matching(f)
			slices.SortFunc(found, func(a, b domain.Schedule) int {
				return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ShareID, b.ShareID))
			})
			out := []domain.ScheduleSummary{}
			for _, s := range found[:min(limit, len(found))] {
				out = append(out, s.Summary())
			}
			return out, nil
		},
		deleteMatching: func(_ context.Context, f domain.ScheduleFilter) (int64, error) {
			before := len(stored)
			stored = slices.DeleteFunc(stored, f.Matches)
			return int64(before - len(stored)), nil
		},
	}
}

// ---- helpers ---------------------------------------------------------------

var fixedNow = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func validInput() domain.NewScheduleInput {
	return domain.NewScheduleInput{
		PersonName:      "  Ada Lovelace ",
		PersonEmail:     "Ada@Example.COM",
		SelectedProject: "general",
		Projects:        domain.DefaultProjects(),
		SelectedDates: domain.SelectedDates{
			"general": {
				"2025-03-12": {QuickSlots: []domain.QuickSlotID{domain.QuickSlotMorning}},
			},
		},
		UserTimezone: "Europe/London",
	}
}

func storedSchedule(expiresAt time.Time) domain.Schedule {
	return domain.Schedule{
		ShareID:         "abcDEF12345",
		PersonName:      "Ada Lovelace",
		PersonEmail:     "ada@example.com",
		SelectedProject: "general",
		Projects:        domain.DefaultProjects(),
		SelectedDates: domain.SelectedDates{
			"general": {
				"2025-03-12": {QuickSlots: []domain.QuickSlotID{domain.QuickSlotMorning}, CustomSlots: []domain.CustomSlot{}},
			},
		},
		CreatedAt:    expiresAt.Add(-7 * 24 * time.Hour),
		ExpiresAt:    expiresAt,
		UserTimezone: "UTC",
		ViewCount:    2,
		LastViewedAt: expiresAt.Add(-7 * 24 * time.Hour),
		Analytics:    domain.Analytics{TotalHours: 3, DaysSelected: 1, ProjectsUsed: []string{"general"}},
	}
}
