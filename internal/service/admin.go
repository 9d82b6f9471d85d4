package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/quickavail/backend/internal/domain"
	"github.com/quickavail/backend/internal/repo"
)

// AdminService implements the key-guarded maintenance operations: cleanup,
// the usage report and the background expired sweep.
type AdminService struct {
	repo repo.ScheduleRepo
	key  string
	log  *slog.Logger
	now  Clock
}

// AdminOption customises an AdminService.
type AdminOption func(*AdminService)

// WithAdminClock replaces the wall clock.
func WithAdminClock(c Clock) AdminOption {
	return func(s *AdminService) { s.now = c }
}

// NewAdminService constructs an AdminService. An empty key rejects every request.
func NewAdminService(r repo.ScheduleRepo, key string, log *slog.Logger, opts ...AdminOption) *AdminService {
	s := &AdminService{repo: r, key: key, log: log, now: systemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize compares key with the configured admin key in constant time.
func (s *AdminService) Authorize(key string) error {
	if s.key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.key)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// Cleanup runs an admin cleanup request. Dry runs count and sample the
// selection; executed runs delete it.
func (s *AdminService) Cleanup(ctx context.Context, key string, req domain.CleanupRequest) (domain.CleanupReport, error) {
	if err := s.Authorize(key); err != nil {
		return domain.CleanupReport{}, fmt.Errorf("service.AdminService.Cleanup: %w", err)
	}

	now := s.now()
	if req.Action == domain.CleanupStats {
		stats, err := s.stats(ctx, now)
		if err != nil {
			return domain.CleanupReport{}, fmt.Errorf("service.AdminService.Cleanup: %w", err)
		}
		return domain.StatsReport(now, stats), nil
	}

	filter, err := req.FilterFor(now)
	if err != nil {
		return domain.CleanupReport{}, fmt.Errorf("service.AdminService.Cleanup: %w", err)
	}

	if req.DryRun {
		count, err := s.repo.Count(ctx, filter)
		if err != nil {
			return domain.CleanupReport{}, fmt.Errorf("service.AdminService.Cleanup: count: %w", err)
		}
		samples, err := s.repo.Sample(ctx, filter, domain.CleanupSampleLimit)
		if err != nil {
			return domain.CleanupReport{}, fmt.Errorf("service.AdminService.Cleanup: sample: %w", err)
		}
		return req.DryRunReport(now, count, samples), nil
	}

	deleted, err := s.repo.DeleteMatching(ctx, filter)
	if err != nil {
		return domain.CleanupReport{}, fmt.Errorf("service.AdminService.Cleanup: delete: %w", err)
	}
	s.log.InfoContext(ctx, "cleanup executed", "action", req.Action, "days_old", req.DaysOld, "deleted", deleted)
	return req.ExecutedReport(now, deleted), nil
}

func (s *AdminService) stats(ctx context.Context, now time.Time) (domain.CleanupStatsReport, error) {
	var (
		out domain.CleanupStatsReport
		err error
	)
	if out.TotalSchedules, err = s.repo.Count(ctx, domain.ScheduleFilter{}); err != nil {
		return out, fmt.Errorf("count total: %w", err)
	}
	if out.ActiveSchedules, err = s.repo.Count(ctx, domain.ActiveFilter(now)); err != nil {
		return out, fmt.Errorf("count active: %w", err)
	}
	if out.ExpiredSchedules, err = s.repo.Count(ctx, domain.ExpiredFilter(now)); err != nil {
		return out, fmt.Errorf("count expired: %w", err)
	}
	views, err := s.repo.ViewStats(ctx)
	if err != nil {
		return out, fmt.Errorf("view stats: %w", err)
	}
	out.AverageViewCount = math.Round(views.AverageViews*100) / 100
	return out, nil
}

// Report builds the usage analytics report.
func (s *AdminService) Report(ctx context.Context, key string) (domain.UsageReport, error) {
	if err := s.Authorize(key); err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: %w", err)
	}

	now := s.now()
	var (
		overview domain.UsageOverview
		creation domain.CreationCounts
		err      error
	)
	if overview.TotalSchedules, err = s.repo.Count(ctx, domain.ScheduleFilter{}); err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: count total: %w", err)
	}
	if overview.ActiveSchedules, err = s.repo.Count(ctx, domain.ActiveFilter(now)); err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: count active: %w", err)
	}
	if overview.ExpiredSchedules, err = s.repo.Count(ctx, domain.ExpiredFilter(now)); err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: count expired: %w", err)
	}
	if overview.UnusedSchedules, err = s.repo.Count(ctx, domain.UnusedFilter(now)); err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: count unused: %w", err)
	}

	for _, w := range []struct {
		dst    *int64
		window time.Duration
	}{
		{&creation.Last24h, 24 * time.Hour},
		{&creation.Last7Days, 7 * 24 * time.Hour},
		{&creation.Last30Days, 30 * 24 * time.Hour},
	} {
		n, err := s.repo.Count(ctx, domain.CreatedSinceFilter(now.Add(-w.window)))
		if err != nil {
			return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: count created: %w", err)
		}
		*w.dst = n
	}

	views, err := s.repo.ViewStats(ctx)
	if err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: view stats: %w", err)
	}
	expirations, err := s.repo.ActiveExpirations(ctx, now)
	if err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: expirations: %w", err)
	}
	projects, err := s.repo.ProjectUsage(ctx, domain.TopProjectsLimit)
	if err != nil {
		return domain.UsageReport{}, fmt.Errorf("service.AdminService.Report: project usage: %w", err)
	}

	return domain.UsageReport{
		Timestamp:       now,
		Overview:        overview,
		Creation:        creation,
		Usage:           domain.NewUsageSummary(views, overview.TotalSchedules),
		Expiration:      domain.BucketExpirations(now, expirations),
		TopProjects:     projects,
		Recommendations: domain.Recommend(overview),
	}, nil
}

// SweepExpired deletes schedules that expired more than retention ago.
// It backs the background sweeper and needs no key.
func (s *AdminService) SweepExpired(ctx context.Context, retention time.Duration) (int64, error) {
	now := s.now()
	deleted, err := s.repo.DeleteMatching(ctx, domain.ExpiredFilter(now.Add(-retention)))
	if err != nil {
		return 0, fmt.Errorf("service.AdminService.SweepExpired: %w", err)
	}
	if deleted > 0 {
		s.log.InfoContext(ctx, "expired schedules swept", "deleted", deleted, "retention", retention.String())
	}
	return deleted, nil
}
