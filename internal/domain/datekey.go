package domain

import (
	"fmt"
	"time"
)

// DateKey is the canonical "YYYY-MM-DD" key of a local calendar date.
//
// A DateKey is always built from calendar components. It must never be produced
// by converting a local instant to UTC first: 23:30 on Jan 31 in UTC-5 is still
// Jan 31, even though the same instant in UTC falls on Feb 1.
type DateKey string

const dateKeyLayout = "2006-01-02"

// NewDateKey builds the key for the given calendar date.
func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
}

// DateKeyOf returns the key for the calendar date of t in t's own location.
func DateKeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return NewDateKey(y, m, d)
}

// ParseDateKey validates s as a real calendar date and returns its key.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return "", validationf("date %q must be a calendar date formatted as YYYY-MM-DD", s)
	}
	return DateKeyOf(t), nil
}

// Date returns the key as midnight UTC of the same calendar date. The result is
// only meant for calendar arithmetic (weekday, formatting), never as an instant.
func (k DateKey) Date() (time.Time, error) {
	t, err := time.Parse(dateKeyLayout, string(k))
	if err != nil {
		return time.Time{}, validationf("date %q must be a calendar date formatted as YYYY-MM-DD", string(k))
	}
	return t, nil
}
