package domain

import (
	"fmt"
	"time"
)

// CleanupAction selects an admin cleanup policy.
type CleanupAction string

const (
	CleanupExpired CleanupAction = "expired"
	CleanupOld     CleanupAction = "old"
	CleanupUnused  CleanupAction = "unused"
	CleanupStats   CleanupAction = "stats"
)

const (
	// DefaultDaysOld is the age threshold of the "old" policy when none is given.
	DefaultDaysOld = 30
	// CleanupSampleLimit bounds the samples returned by a dry run.
	CleanupSampleLimit = 5
	// UnusedGrace is how long a schedule may go without viewers before it
	// counts as unused.
	UnusedGrace = 24 * time.Hour
	// UnusedMaxViews is the highest view count still considered unused; the
	// creator's own check of the link accounts for one view.
	UnusedMaxViews = 1
)

// ParseCleanupAction validates s.
func ParseCleanupAction(s string) (CleanupAction, error) {
	switch a := CleanupAction(s); a {
	case CleanupExpired, CleanupOld, CleanupUnused, CleanupStats:
		return a, nil
	default:
		return "", validationf("invalid action %q, use: expired, old, unused, or stats", s)
	}
}

// ScheduleFilter is a conjunction of predicates over stored schedules.
// Zero-valued fields do not constrain.
type ScheduleFilter struct {
	ExpiresBefore time.Time // expiresAt < ExpiresBefore
	ExpiresAfter  time.Time // expiresAt > ExpiresAfter
	CreatedBefore time.Time // createdAt < CreatedBefore
	CreatedSince  time.Time // createdAt >= CreatedSince
	MaxViews      *int      // viewCount <= *MaxViews
}

// Matches reports whether s satisfies every set predicate of f.
func (f ScheduleFilter) Matches(s Schedule) bool {
	if !f.ExpiresBefore.IsZero() && !s.ExpiresAt.Before(f.ExpiresBefore) {
		return false
	}
	if !f.ExpiresAfter.IsZero() && !s.ExpiresAt.After(f.ExpiresAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !s.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	if !f.CreatedSince.IsZero() && s.CreatedAt.Before(f.CreatedSince) {
		return false
	}
	if f.MaxViews != nil && s.ViewCount > *f.MaxViews {
		return false
	}
	return true
}

// ExpiredFilter selects schedules whose expiration is before now.
func ExpiredFilter(now time.Time) ScheduleFilter {
	return ScheduleFilter{ExpiresBefore: now}
}

// ActiveFilter selects schedules that expire after now.
func ActiveFilter(now time.Time) ScheduleFilter {
	return ScheduleFilter{ExpiresAfter: now}
}

// OldFilter selects schedules created more than daysOld days before now.
func OldFilter(now time.Time, daysOld int) ScheduleFilter {
	return ScheduleFilter{CreatedBefore: now.Add(-time.Duration(daysOld) * day)}
}

// UnusedFilter selects schedules older than UnusedGrace with at most
// UnusedMaxViews views.
func UnusedFilter(now time.Time) ScheduleFilter {
	maxViews := UnusedMaxViews
	return ScheduleFilter{CreatedBefore: now.Add(-UnusedGrace), MaxViews: &maxViews}
}

// CreatedSinceFilter selects schedules created at or after since.
func CreatedSinceFilter(since time.Time) ScheduleFilter {
	return ScheduleFilter{CreatedSince: since}
}

// CleanupRequest is an admin cleanup invocation.
type CleanupRequest struct {
	Action  CleanupAction
	DryRun  bool
	DaysOld int
}

// FilterFor returns the selection the request's action deletes.
// It is not defined for CleanupStats.
func (r CleanupRequest) FilterFor(now time.Time) (ScheduleFilter, error) {
	switch r.Action {
	case CleanupExpired:
		return ExpiredFilter(now), nil
	case CleanupOld:
		if r.DaysOld < 1 {
			return ScheduleFilter{}, validationf("daysOld must be at least 1")
		}
		return OldFilter(now, r.DaysOld), nil
	case CleanupUnused:
		return UnusedFilter(now), nil
	default:
		return ScheduleFilter{}, validationf("action %q does not select schedules", r.Action)
	}
}

// Label names the action the way reports display it, e.g.
// "old (dry run, >30 days)" or "expired (executed)".
func (r CleanupRequest) Label() string {
	mode := "executed"
	if r.DryRun {
		mode = "dry run"
	}
	switch r.Action {
	case CleanupStats:
		return string(CleanupStats)
	case CleanupOld:
		return fmt.Sprintf("old (%s, >%d days)", mode, r.DaysOld)
	default:
		return fmt.Sprintf("%s (%s)", r.Action, mode)
	}
}

// describe returns the noun phrase used in report messages.
func (r CleanupRequest) describe() string {
	switch r.Action {
	case CleanupOld:
		return fmt.Sprintf("schedules older than %d days", r.DaysOld)
	case CleanupUnused:
		return "unused schedules older than 24h"
	default:
		return "expired schedules"
	}
}

// CleanupStatsReport is the result of the stats action.
type CleanupStatsReport struct {
	TotalSchedules   int64   `json:"totalSchedules"`
	ActiveSchedules  int64   `json:"activeSchedules"`
	ExpiredSchedules int64   `json:"expiredSchedules"`
	AverageViewCount float64 `json:"averageViewCount"`
}

// CleanupReport is the outcome of an admin cleanup request.
type CleanupReport struct {
	Action       string              `json:"action"`
	Timestamp    time.Time           `json:"timestamp"`
	MatchCount   *int64              `json:"matchCount,omitempty"`
	Samples      []ScheduleSummary   `json:"samples,omitempty"`
	DeletedCount *int64              `json:"deletedCount,omitempty"`
	Stats        *CleanupStatsReport `json:"stats,omitempty"`
	Message      string              `json:"message"`
}

// DryRunReport builds the report of a dry run that matched count schedules.
func (r CleanupRequest) DryRunReport(now time.Time, count int64, samples []ScheduleSummary) CleanupReport {
	if samples == nil {
		samples = []ScheduleSummary{}
	}
	return CleanupReport{
		Action:     r.Label(),
		Timestamp:  now,
		MatchCount: &count,
		Samples:    samples,
		Message:    fmt.Sprintf("Found %d %s. Use dryRun: false to delete them.", count, r.describe()),
	}
}

// ExecutedReport builds the report of a cleanup that deleted count schedules.
func (r CleanupRequest) ExecutedReport(now time.Time, count int64) CleanupReport {
	return CleanupReport{
		Action:       r.Label(),
		Timestamp:    now,
		DeletedCount: &count,
		Message:      fmt.Sprintf("Deleted %d %s", count, r.describe()),
	}
}

// StatsReport wraps stats in a report.
func StatsReport(now time.Time, stats CleanupStatsReport) CleanupReport {
	return CleanupReport{
		Action:    string(CleanupStats),
		Timestamp: now,
		Stats:     &stats,
		Message:   "Database statistics retrieved",
	}
}
