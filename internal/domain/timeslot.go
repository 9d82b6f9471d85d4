package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuickSlotID names one of the fixed quick time ranges a person can tick for a day.
type QuickSlotID string

const (
	QuickSlotMorning   QuickSlotID = "morning"
	QuickSlotAfternoon QuickSlotID = "afternoon"
	QuickSlotEvening   QuickSlotID = "evening"
)

// QuickTimeSlot is an immutable catalog entry describing a quick slot.
type QuickTimeSlot struct {
	ID            QuickSlotID `json:"id"`
	Label         string      `json:"label"`
	Time          string      `json:"time"`
	StartTime     string      `json:"startTime"`
	EndTime       string      `json:"endTime"`
	DurationHours float64     `json:"durationHours"`
}

// quickTimeSlots is the catalog in display order. Durations are fixed and are
// the only values used for hour computation.
var quickTimeSlots = []QuickTimeSlot{
	{ID: QuickSlotMorning, Label: "Morning", Time: "9:00 AM - 12:00 PM", StartTime: "09:00", EndTime: "12:00", DurationHours: 3},
	{ID: QuickSlotAfternoon, Label: "Afternoon", Time: "12:00 PM - 5:00 PM", StartTime: "12:00", EndTime: "17:00", DurationHours: 5},
	{ID: QuickSlotEvening, Label: "Evening", Time: "5:00 PM - 8:00 PM", StartTime: "17:00", EndTime: "20:00", DurationHours: 3},
}

// QuickTimeSlots returns the quick slot catalog in display order.
// The returned slice is a copy; callers may modify it freely.
func QuickTimeSlots() []QuickTimeSlot {
	out := make([]QuickTimeSlot, len(quickTimeSlots))
	copy(out, quickTimeSlots)
	return out
}

// LookupQuickSlot returns the catalog entry for id.
func LookupQuickSlot(id QuickSlotID) (QuickTimeSlot, bool) {
	for _, s := range quickTimeSlots {
		if s.ID == id {
			return s, true
		}
	}
	return QuickTimeSlot{}, false
}

// Duration returns the fixed length of the quick slot in hours, or 0 for an
// id that is not in the catalog.
func (id QuickSlotID) Duration() float64 {
	s, ok := LookupQuickSlot(id)
	if !ok {
		return 0
	}
	return s.DurationHours
}

// clockReference anchors "HH:MM" values to a single day so that only the
// time-of-day difference matters when two bounds are subtracted.
var clockReference = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseClock parses a zero-padded 24h "HH:MM" string into an instant on the
// reference day.
func ParseClock(s string) (time.Time, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || !twoDigits(hh) || !twoDigits(mm) {
		return time.Time{}, validationf("time %q must be formatted as HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return time.Time{}, validationf("time %q has an invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return time.Time{}, validationf("time %q has an invalid minute", s)
	}
	return clockReference.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// twoDigits reports whether s is exactly two ASCII digits. Atoi alone would
// accept signs such as "+9".
func twoDigits(s string) bool {
	return len(s) == 2 && isDigit(s[0]) && isDigit(s[1])
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// FormatClock renders a 24h "HH:MM" value as "h:MM AM/PM".
// Malformed input is returned unchanged.
func FormatClock(s string) string {
	t, err := ParseClock(s)
	if err != nil {
		return s
	}
	return t.Format("3:04 PM")
}

// SpanHours returns end minus start in hours. Fractional results are allowed
// (30 minutes is 0.5). Both bounds must already be validated.
func SpanHours(start, end string) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	return e.Sub(s).Hours(), nil
}

// checkRange validates a custom slot range. Every failure, malformed bounds
// included, matches ErrInvalidRange.
func checkRange(start, end string) error {
	s, err := ParseClock(start)
	if err != nil {
		return fmt.Errorf("%w: start: %w", ErrInvalidRange, err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return fmt.Errorf("%w: end: %w", ErrInvalidRange, err)
	}
	if !s.Before(e) {
		return ErrInvalidRange
	}
	return nil
}
