package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Analytics is the summary stored alongside a schedule.
type Analytics struct {
	TotalHours   float64  `json:"totalHours" bson:"totalHours"`
	DaysSelected int      `json:"daysSelected" bson:"daysSelected"`
	ProjectsUsed []string `json:"projectsUsed" bson:"projectsUsed"`
}

// ComputeHours returns the hours covered by a day: the fixed duration of each
// quick slot plus end-start of each custom slot. Malformed custom slots
// contribute nothing; selections are validated before they reach storage.
func ComputeHours(d DayEntry) float64 {
	var total float64
	for _, q := range d.QuickSlots {
		total += q.Duration()
	}
	for _, c := range d.CustomSlots {
		h, err := SpanHours(c.StartTime, c.EndTime)
		if err != nil {
			continue
		}
		total += h
	}
	return total
}

// ComputeScheduleAnalytics derives the stored summary of a selection.
// DaysSelected counts one per (project, date) pair, so a date chosen under two
// projects counts twice. TotalHours is rounded to one decimal only after the
// full-precision sum.
func ComputeScheduleAnalytics(sd SelectedDates) Analytics {
	a := Analytics{ProjectsUsed: []string{}}
	var total float64
	for project, dates := range sd {
		if len(dates) == 0 {
			continue
		}
		a.ProjectsUsed = append(a.ProjectsUsed, project)
		for _, entry := range dates {
			a.DaysSelected++
			total += ComputeHours(entry)
		}
	}
	sort.Strings(a.ProjectsUsed)
	a.TotalHours = RoundTenth(total)
	return a
}

// ComputeProjectHours sums the hours of a single project. It backs the live
// summary shown while editing, which covers only the active project.
func ComputeProjectHours(sd SelectedDates, project string) float64 {
	var total float64
	for _, entry := range sd[project] {
		total += ComputeHours(entry)
	}
	return total
}

// RoundTenth rounds h to one decimal place.
func RoundTenth(h float64) float64 {
	return math.Round(h*10) / 10
}

// FormatHours renders an hour count for display: "0 hours", "1 hour",
// "8 hours", "2.5 hours". The value is rounded to one decimal first, so 0.96
// reads "1 hour".
func FormatHours(h float64) string {
	h = RoundTenth(h)
	switch {
	case h == 0:
		return "0 hours"
	case h == 1:
		return "1 hour"
	case h == math.Trunc(h):
		return strconv.FormatFloat(h, 'f', 0, 64) + " hours"
	default:
		return fmt.Sprintf("%.1f hours", h)
	}
}
