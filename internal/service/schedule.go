// Package service contains the business logic for the QuickAvail API.
// Services validate inputs, enforce the expiration lifecycle and orchestrate
// repo calls. No queries live here; services depend on repo interfaces.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quickavail/backend/internal/domain"
	"github.com/quickavail/backend/internal/repo"
)

// Clock returns the current instant. Tests substitute a fixed clock.
type Clock func() time.Time

// systemClock truncates to milliseconds, the precision every store keeps.
func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ScheduleService implements the public schedule operations: create, view
// and export.
type ScheduleService struct {
	repo  repo.ScheduleRepo
	log   *slog.Logger
	now   Clock
	newID func() (string, error)
}

// ScheduleOption customises a ScheduleService.
type ScheduleOption func(*ScheduleService)

// WithScheduleClock replaces the wall clock.
func WithScheduleClock(c Clock) ScheduleOption {
	return func(s *ScheduleService) { s.now = c }
}

// WithShareIDGenerator replaces the crypto-random share id generator.
func WithShareIDGenerator(f func() (string, error)) ScheduleOption {
	return func(s *ScheduleService) { s.newID = f }
}

// NewScheduleService constructs a ScheduleService backed by the provided repo.
func NewScheduleService(r repo.ScheduleRepo, log *slog.Logger, opts ...ScheduleOption) *ScheduleService {
	s := &ScheduleService{
		repo:  r,
		log:   log,
		now:   systemClock,
		newID: domain.NewShareID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input and stores a new schedule under a fresh share id.
// A share id collision surfaces as domain.ErrConflict; the client may retry.
func (s *ScheduleService) Create(ctx context.Context, in domain.NewScheduleInput) (domain.Schedule, error) {
	id, err := s.newID()
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("service.ScheduleService.Create: %w", err)
	}

	sched, err := domain.NewSchedule(in, id, s.now())
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("service.ScheduleService.Create: %w", err)
	}

	if err := s.repo.Create(ctx, sched); err != nil {
		return domain.Schedule{}, fmt.Errorf("service.ScheduleService.Create: %w", err)
	}

	s.log.InfoContext(ctx, "schedule created",
		"share_id", sched.ShareID,
		"expires_at", sched.ExpiresAt,
		"days_selected", sched.Analytics.DaysSelected,
		"total_hours", sched.Analytics.TotalHours,
	)
	return sched, nil
}

// Get serves a schedule to a viewer. An expired schedule is reported as
// domain.ErrExpired and its view count is left untouched; otherwise the view
// is recorded and the returned record carries the incremented count.
func (s *ScheduleService) Get(ctx context.Context, shareID string) (domain.ScheduleView, error) {
	sched, err := s.repo.GetByShareID(ctx, shareID)
	if err != nil {
		return domain.ScheduleView{}, fmt.Errorf("service.ScheduleService.Get: %w", err)
	}

	now := s.now()
	if domain.IsExpired(now, sched.ExpiresAt) {
		s.log.InfoContext(ctx, "schedule expired", "share_id", shareID, "expires_at", sched.ExpiresAt)
		return domain.ScheduleView{}, fmt.Errorf("service.ScheduleService.Get: %w", domain.ErrExpired)
	}

	count, err := s.repo.RecordView(ctx, shareID, now)
	if err != nil {
		return domain.ScheduleView{}, fmt.Errorf("service.ScheduleService.Get: record view: %w", err)
	}

	return domain.ScheduleView{Schedule: sched.Viewed(count), At: now}, nil
}

// Export returns the rows of a schedule export. Exports are not views.
func (s *ScheduleService) Export(ctx context.Context, shareID string) (domain.Schedule, []domain.ExportRow, error) {
	sched, err := s.repo.GetByShareID(ctx, shareID)
	if err != nil {
		return domain.Schedule{}, nil, fmt.Errorf("service.ScheduleService.Export: %w", err)
	}
	if domain.IsExpired(s.now(), sched.ExpiresAt) {
		return domain.Schedule{}, nil, fmt.Errorf("service.ScheduleService.Export: %w", domain.ErrExpired)
	}

	rows, err := domain.BuildExport(sched)
	if err != nil {
		return domain.Schedule{}, nil, fmt.Errorf("service.ScheduleService.Export: %w", err)
	}
	return sched, rows, nil
}
