package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Project is a category under which availability is grouped.
// Color is an opaque display token chosen by the client.
type Project struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Color string `json:"color" bson:"color"`
}

// DefaultProjects are the preset categories offered to a new schedule.
func DefaultProjects() []Project {
	return []Project{
		{ID: "general", Name: "General", Color: "bg-blue-500"},
		{ID: "client", Name: "Client Meetings", Color: "bg-green-500"},
		{ID: "team", Name: "Team Sync", Color: "bg-purple-500"},
		{ID: "personal", Name: "Personal", Color: "bg-orange-500"},
	}
}

// CustomSlot is a user-defined time range on a single day.
type CustomSlot struct {
	ID        string `json:"id" bson:"id"`
	StartTime string `json:"startTime" bson:"startTime"`
	EndTime   string `json:"endTime" bson:"endTime"`
	Display   string `json:"display" bson:"display"`
}

// DayEntry holds the slots chosen for one date under one project.
// QuickSlots behaves as a set; its order carries no meaning.
type DayEntry struct {
	QuickSlots  []QuickSlotID `json:"quickSlots" bson:"quickSlots"`
	CustomSlots []CustomSlot  `json:"customSlots" bson:"customSlots"`
}

// HasQuickSlot reports whether id is selected for the day.
func (d DayEntry) HasQuickSlot(id QuickSlotID) bool {
	return slices.Contains(d.QuickSlots, id)
}

// hasRange reports whether a custom slot with the same bounds already exists.
func (d DayEntry) hasRange(start, end string) bool {
	return slices.ContainsFunc(d.CustomSlots, func(c CustomSlot) bool {
		return c.StartTime == start && c.EndTime == end
	})
}

// SelectedDates maps project id → date → chosen slots.
//
// Values are treated as immutable: every builder operation returns a new
// SelectedDates. The top-level map and the touched project map are copied;
// untouched projects, dates and slot slices are shared with the previous value,
// so slices must never be modified in place.
type SelectedDates map[string]map[DateKey]DayEntry

// Entry returns the day entry for (project, date).
func (sd SelectedDates) Entry(project string, date DateKey) (DayEntry, bool) {
	e, ok := sd[project][date]
	return e, ok
}

// Count returns the number of (project, date) entries.
func (sd SelectedDates) Count() int {
	n := 0
	for _, dates := range sd {
		n += len(dates)
	}
	return n
}

// withProject returns a shallow copy of sd along with a copy of project's
// date map that the caller may modify.
func (sd SelectedDates) withProject(project string) (SelectedDates, map[DateKey]DayEntry) {
	next := make(SelectedDates, len(sd)+1)
	for k, v := range sd {
		next[k] = v
	}
	dates := make(map[DateKey]DayEntry, len(sd[project])+1)
	for k, v := range sd[project] {
		dates[k] = v
	}
	next[project] = dates
	return next, dates
}

// ToggleDate removes the entry for (project, date) when present, dropping the
// project once it has no dates left. Otherwise it adds an empty entry.
func (sd SelectedDates) ToggleDate(project string, date DateKey) SelectedDates {
	next, dates := sd.withProject(project)
	if _, ok := dates[date]; ok {
		delete(dates, date)
		if len(dates) == 0 {
			delete(next, project)
		}
		return next
	}
	dates[date] = DayEntry{QuickSlots: []QuickSlotID{}, CustomSlots: []CustomSlot{}}
	return next
}

// ToggleQuickSlot flips membership of id for (project, date), creating the
// entry if needed. Unknown slot ids are rejected.
func (sd SelectedDates) ToggleQuickSlot(project string, date DateKey, id QuickSlotID) (SelectedDates, error) {
	if _, ok := LookupQuickSlot(id); !ok {
		return sd, validationf("unknown quick slot %q", id)
	}
	next, dates := sd.withProject(project)
	entry := dates[date]

	var quick []QuickSlotID
	if entry.HasQuickSlot(id) {
		quick = make([]QuickSlotID, 0, len(entry.QuickSlots))
		for _, q := range entry.QuickSlots {
			if q != id {
				quick = append(quick, q)
			}
		}
	} else {
		quick = append(slices.Clip(entry.QuickSlots), id)
	}

	dates[date] = DayEntry{QuickSlots: quick, CustomSlots: nonNil(entry.CustomSlots)}
	return next, nil
}

// AddCustomSlot appends a custom range to (project, date), creating the entry if
// needed. It returns ErrInvalidRange when start is not before end. Adding a
// range whose bounds already exist for that date is a silent no-op, so a
// repeated submission never produces a duplicate.
func (sd SelectedDates) AddCustomSlot(project string, date DateKey, start, end string) (SelectedDates, error) {
	if err := checkRange(start, end); err != nil {
		return sd, err
	}
	if entry, ok := sd.Entry(project, date); ok && entry.hasRange(start, end) {
		return sd, nil
	}

	next, dates := sd.withProject(project)
	entry := dates[date]
	slot := NewCustomSlot(start, end)
	dates[date] = DayEntry{
		QuickSlots:  nonNil(entry.QuickSlots),
		CustomSlots: append(slices.Clip(entry.CustomSlots), slot),
	}
	return next, nil
}

// RemoveCustomSlot removes the custom slot with the given id. Missing
// projects, dates or ids leave sd unchanged.
func (sd SelectedDates) RemoveCustomSlot(project string, date DateKey, slotID string) SelectedDates {
	entry, ok := sd.Entry(project, date)
	if !ok {
		return sd
	}
	idx := slices.IndexFunc(entry.CustomSlots, func(c CustomSlot) bool { return c.ID == slotID })
	if idx < 0 {
		return sd
	}

	next, dates := sd.withProject(project)
	custom := make([]CustomSlot, 0, len(entry.CustomSlots)-1)
	custom = append(custom, entry.CustomSlots[:idx]...)
	custom = append(custom, entry.CustomSlots[idx+1:]...)
	dates[date] = DayEntry{QuickSlots: nonNil(entry.QuickSlots), CustomSlots: custom}
	return next
}

// NewCustomSlot builds a slot with a fresh random id and a 12h display label.
// Bounds are not validated here.
func NewCustomSlot(start, end string) CustomSlot {
	return CustomSlot{
		ID:        uuid.NewString(),
		StartTime: start,
		EndTime:   end,
		Display:   FormatClock(start) + " - " + FormatClock(end),
	}
}

// Normalize validates a selection received from a client and returns a copy
// with empty project entries dropped and missing custom slot ids and labels
// filled in. Repeated quick slots and repeated custom ranges within a day
// collapse to their first occurrence. It rejects malformed date keys, unknown
// quick slots and invalid custom ranges.
func (sd SelectedDates) Normalize() (SelectedDates, error) {
	out := make(SelectedDates, len(sd))
	for project, dates := range sd {
		if project == "" {
			return nil, validationf("project id is required")
		}
		if len(dates) == 0 {
			continue
		}
		copied := make(map[DateKey]DayEntry, len(dates))
		for date, entry := range dates {
			if _, err := ParseDateKey(string(date)); err != nil {
				return nil, err
			}
			normalized, err := entry.normalize()
			if err != nil {
				return nil, err
			}
			copied[date] = normalized
		}
		out[project] = copied
	}
	return out, nil
}

func (d DayEntry) normalize() (DayEntry, error) {
	quick := make([]QuickSlotID, 0, len(d.QuickSlots))
	for _, q := range d.QuickSlots {
		if _, ok := LookupQuickSlot(q); !ok {
			return DayEntry{}, validationf("unknown quick slot %q", q)
		}
		if !slices.Contains(quick, q) {
			quick = append(quick, q)
		}
	}

	custom := make([]CustomSlot, 0, len(d.CustomSlots))
	seen := DayEntry{}
	for _, c := range d.CustomSlots {
		if err := checkRange(c.StartTime, c.EndTime); err != nil {
			return DayEntry{}, err
		}
		if seen.hasRange(c.StartTime, c.EndTime) {
			continue
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Display == "" {
			c.Display = FormatClock(c.StartTime) + " - " + FormatClock(c.EndTime)
		}
		custom = append(custom, c)
		seen.CustomSlots = custom
	}
	return DayEntry{QuickSlots: quick, CustomSlots: custom}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
