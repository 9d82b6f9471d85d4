package domain

import (
	"sort"
	"strings"
)

// ExportRow is a single row in a schedule export: one row per project and
// date, in the schedule's project order and then by date.
//
// Date and Day are derived from the DateKey's calendar components, so the
// weekday never shifts with the server's zone.
type ExportRow struct {
	DateKey   DateKey
	Date      string // "Jan 2, 2006"
	Day       string // "Monday"
	ProjectID string
	Project   string
	TimeSlots []string // quick slot ranges first, then custom slot labels
	Hours     float64
}

// BuildExport flattens a schedule's selection into export rows.
// Projects present in the selection but missing from the project list follow
// the listed ones in id order.
func BuildExport(s Schedule) ([]ExportRow, error) {
	var rows []ExportRow
	for _, project := range exportProjectOrder(s) {
		dates := s.SelectedDates[project]
		keys := make([]DateKey, 0, len(dates))
		for k := range dates {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		for _, key := range keys {
			entry := dates[key]
			d, err := key.Date()
			if err != nil {
				return nil, err
			}
			rows = append(rows, ExportRow{
				DateKey:   key,
				Date:      d.Format("Jan 2, 2006"),
				Day:       d.Weekday().String(),
				ProjectID: project,
				Project:   s.ProjectName(project),
				TimeSlots: slotLabels(entry),
				Hours:     ComputeHours(entry),
			})
		}
	}
	return rows, nil
}

// ExportTotalHours sums the hours of rows.
func ExportTotalHours(rows []ExportRow) float64 {
	var total float64
	for _, r := range rows {
		total += r.Hours
	}
	return total
}

func exportProjectOrder(s Schedule) []string {
	seen := make(map[string]bool, len(s.SelectedDates))
	var order []string
	for _, p := range s.Projects {
		if _, ok := s.SelectedDates[p.ID]; ok && !seen[p.ID] {
			seen[p.ID] = true
			order = append(order, p.ID)
		}
	}
	var rest []string
	for id := range s.SelectedDates {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func slotLabels(d DayEntry) []string {
	labels := make([]string, 0, len(d.QuickSlots)+len(d.CustomSlots))
	// Catalog order keeps the output stable whatever order the set was built in.
	for _, q := range quickTimeSlots {
		if d.HasQuickSlot(q.ID) {
			labels = append(labels, q.Time)
		}
	}
	for _, c := range d.CustomSlots {
		labels = append(labels, c.Display)
	}
	return labels
}

// JoinSlots joins time slot labels the way a CSV cell shows them.
func JoinSlots(labels []string) string {
	return strings.Join(labels, "; ")
}
