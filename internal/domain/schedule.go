// Package domain contains the core data types and pure computations of the
// QuickAvail service: the availability selection builder, hour analytics, the
// expiration lifecycle and cleanup policy. It has no storage or transport
// dependencies and is imported by every other internal package.
package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // userTimezone validation must not depend on the host's zoneinfo
)

// Schedule is the persisted, immutable-once-shared availability record.
// Only ViewCount and LastViewedAt change after creation.
type Schedule struct {
	ShareID         string        `json:"shareId"`
	PersonName      string        `json:"personName"`
	PersonEmail     string        `json:"personEmail"`
	SelectedProject string        `json:"selectedProject"`
	Projects        []Project     `json:"projects"`
	SelectedDates   SelectedDates `json:"selectedDates"`
	CreatedAt       time.Time     `json:"createdAt"`
	ExpiresAt       time.Time     `json:"expiresAt"`
	UserTimezone    string        `json:"userTimezone"`
	ViewCount       int           `json:"viewCount"`
	LastViewedAt    time.Time     `json:"lastViewedAt"`
	Analytics       Analytics     `json:"analytics"`
}

// NewScheduleInput is the client-supplied part of a schedule.
// ExpirationDays nil means the default lifetime.
type NewScheduleInput struct {
	PersonName      string
	PersonEmail     string
	SelectedProject string
	Projects        []Project
	SelectedDates   SelectedDates
	ExpirationDays  *int
	UserTimezone    string
}

// ShareIDLength is the length of a generated share id: 8 random bytes in
// unpadded base64url.
const ShareIDLength = 11

// DefaultTimezone is stored when the client does not report one.
const DefaultTimezone = "UTC"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewShareID returns a crypto-random, url-safe share id.
func NewShareID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("domain.NewShareID: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewSchedule validates in and assembles a schedule created at now with the
// given share id. The returned schedule has ViewCount 0 and LastViewedAt equal
// to CreatedAt.
func NewSchedule(in NewScheduleInput, shareID string, now time.Time) (Schedule, error) {
	name := strings.TrimSpace(in.PersonName)
	if name == "" {
		return Schedule{}, validationf("personName is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.PersonEmail))
	if email == "" {
		return Schedule{}, validationf("personEmail is required")
	}
	if !emailPattern.MatchString(email) {
		return Schedule{}, validationf("personEmail must be a valid email address")
	}
	if in.SelectedDates.Count() == 0 {
		return Schedule{}, validationf("select at least one date")
	}
	selected, err := in.SelectedDates.Normalize()
	if err != nil {
		return Schedule{}, err
	}
	if selected.Count() == 0 {
		return Schedule{}, validationf("select at least one date")
	}

	tz := strings.TrimSpace(in.UserTimezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return Schedule{}, validationf("userTimezone %q is not a known time zone", tz)
	}

	projects := in.Projects
	if projects == nil {
		projects = []Project{}
	}

	days := DefaultExpirationDays
	if in.ExpirationDays != nil {
		days = *in.ExpirationDays
	}

	now = now.UTC()
	return Schedule{
		ShareID:         shareID,
		PersonName:      name,
		PersonEmail:     email,
		SelectedProject: in.SelectedProject,
		Projects:        projects,
		SelectedDates:   selected,
		CreatedAt:       now,
		ExpiresAt:       ComputeExpiresAt(now, days),
		UserTimezone:    tz,
		ViewCount:       0,
		LastViewedAt:    now,
		Analytics:       ComputeScheduleAnalytics(selected),
	}, nil
}

// ExpirationDays returns the lifetime the schedule was created with.
func (s Schedule) ExpirationDays() int {
	return int(s.ExpiresAt.Sub(s.CreatedAt) / day)
}

// Remaining returns the lifetime left at now.
func (s Schedule) Remaining(now time.Time) Remaining {
	return TimeUntilExpiration(now, s.ExpiresAt)
}

// Viewed returns s as read before a view was recorded, annotated with the
// view count the store reported after incrementing.
func (s Schedule) Viewed(viewCount int) Schedule {
	s.ViewCount = viewCount
	return s
}

// ProjectName returns the display name for id, falling back to id itself.
func (s Schedule) ProjectName(id string) string {
	for _, p := range s.Projects {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// ScheduleView is a schedule as served to a viewer at instant At.
type ScheduleView struct {
	Schedule Schedule
	At       time.Time
}

// Remaining returns the lifetime left when the view was served.
func (v ScheduleView) Remaining() Remaining {
	return v.Schedule.Remaining(v.At)
}

// ScheduleSummary is the reduced view of a schedule returned in cleanup samples.
type ScheduleSummary struct {
	ShareID    string    `json:"shareId"`
	PersonName string    `json:"personName"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	ViewCount  int       `json:"viewCount"`
}

// Summary returns the sample view of s.
func (s Schedule) Summary() ScheduleSummary {
	return ScheduleSummary{
		ShareID:    s.ShareID,
		PersonName: s.PersonName,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
		ViewCount:  s.ViewCount,
	}
}
