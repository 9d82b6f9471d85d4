// Package worker runs background maintenance for stores that cannot expire
// records on their own.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSweeper deletes schedules that expired more than retention ago.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// Sweeper periodically removes expired schedules.
type Sweeper struct {
	svc       ExpiredSweeper
	interval  time.Duration
	retention time.Duration
	log       *slog.Logger
}

// NewSweeper returns a Sweeper that runs every interval.
func NewSweeper(svc ExpiredSweeper, interval, retention time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, retention: retention, log: log}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A non-positive interval returns at once.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.InfoContext(ctx, "expired sweep disabled")
		return
	}
	s.log.InfoContext(ctx, "expired sweep started", "interval", s.interval.String(), "retention", s.retention.String())

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.log.Info("expired sweep stopped")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.svc.SweepExpired(ctx, s.retention)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.ErrorContext(ctx, "expired sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.log.InfoContext(ctx, "expired schedules swept", "deleted", deleted)
	}
}
