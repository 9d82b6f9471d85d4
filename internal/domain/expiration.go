package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultExpirationDays applies when a schedule is created without a lifetime.
	DefaultExpirationDays = 7
	MinExpirationDays     = 1
	MaxExpirationDays     = 30

	day = 24 * time.Hour
)

// ClampExpirationDays returns days bounded to [1, 30]. Zero means "not set"
// and yields the default.
func ClampExpirationDays(days int) int {
	if days == 0 {
		return DefaultExpirationDays
	}
	return min(max(days, MinExpirationDays), MaxExpirationDays)
}

// ComputeExpiresAt returns createdAt plus the clamped number of whole days.
// The arithmetic is on absolute instants, so the lifetime is exactly
// days*24h of wall-clock time whatever the zone or DST transitions.
func ComputeExpiresAt(createdAt time.Time, days int) time.Time {
	return createdAt.Add(time.Duration(ClampExpirationDays(days)) * day)
}

// IsExpired reports whether now has reached expiresAt.
func IsExpired(now, expiresAt time.Time) bool {
	return !now.Before(expiresAt)
}

// Stage buckets a schedule's remaining lifetime. It is derived at read time
// and never stored.
type Stage string

const (
	StageActive        Stage = "active"
	StageExpiringSoon  Stage = "expiring_soon"
	StageExpiringToday Stage = "expiring_today"
	StageExpired       Stage = "expired"
)

// Remaining describes the time left before expiration. Days, Hours and
// Minutes are each the delta rounded up to that unit.
type Remaining struct {
	Delta           time.Duration
	Days            int64
	Hours           int64
	Minutes         int64
	IsExpired       bool
	IsExpiringSoon  bool
	IsExpiringToday bool
}

// TimeUntilExpiration computes the remaining lifetime at now.
func TimeUntilExpiration(now, expiresAt time.Time) Remaining {
	delta := expiresAt.Sub(now)
	r := Remaining{
		Delta:   delta,
		Days:    ceilUnits(delta, day),
		Hours:   ceilUnits(delta, time.Hour),
		Minutes: ceilUnits(delta, time.Minute),
	}
	r.IsExpired = delta <= 0
	r.IsExpiringSoon = r.Days > 0 && r.Days <= 2
	r.IsExpiringToday = r.Days <= 0 && r.Hours > 0
	return r
}

func ceilUnits(d, unit time.Duration) int64 {
	return int64(math.Ceil(float64(d) / float64(unit)))
}

// Stage returns the bucket for r.
func (r Remaining) Stage() Stage {
	switch {
	case r.IsExpired:
		return StageExpired
	case r.IsExpiringToday:
		return StageExpiringToday
	case r.IsExpiringSoon:
		return StageExpiringSoon
	default:
		return StageActive
	}
}

// Message returns the human-readable expiration text for r.
func (r Remaining) Message() string {
	switch {
	case r.IsExpired:
		return "This schedule has expired"
	case r.IsExpiringToday && r.Hours <= 1:
		return fmt.Sprintf("Expires in %d %s", r.Minutes, plural(r.Minutes, "minute"))
	case r.IsExpiringToday:
		return fmt.Sprintf("Expires in %d %s", r.Hours, plural(r.Hours, "hour"))
	case r.Days == 1:
		return "Expires tomorrow"
	default:
		return fmt.Sprintf("Expires in %d %s", r.Days, plural(r.Days, "day"))
	}
}

// ExpirationMessage is shorthand for TimeUntilExpiration(now, expiresAt).Message().
func ExpirationMessage(now, expiresAt time.Time) string {
	return TimeUntilExpiration(now, expiresAt).Message()
}

// Warning is the banner shown to a viewer when a schedule is close to, or
// past, its expiration.
type Warning struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Warning returns the banner for r, or nil while the schedule is comfortably
// active.
func (r Remaining) Warning() *Warning {
	switch r.Stage() {
	case StageExpired:
		return &Warning{Type: "expired", Title: "Schedule Expired", Message: "This schedule has expired and may no longer be accurate."}
	case StageExpiringToday:
		return &Warning{Type: "today", Title: "Expires Today", Message: fmt.Sprintf("This schedule expires in %d %s.", r.Hours, plural(r.Hours, "hour"))}
	case StageExpiringSoon:
		return &Warning{Type: "soon", Title: "Expires Soon", Message: fmt.Sprintf("This schedule expires in %d %s.", r.Days, plural(r.Days, "day"))}
	default:
		return nil
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
