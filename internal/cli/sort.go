package cli

import (
	"sort"
	"strings"

	"github.com/sheridangray/family-event-planner/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate   SortOrder = "date"
	SortByTitle  SortOrder = "title"
	SortBySource SortOrder = "source"
)

// sortEvents sorts a slice of events based on the specified sort order.
// The sort is stable so equal keys keep their first-seen order.
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortBySource:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Source != events[j].Source {
				return events[i].Source < events[j].Source
			}
			// If sources are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their date
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	// If both dates are valid, compare them
	if i.HasDate() && j.HasDate() {
		return i.Date.Before(j.Date)
	}

	// If only one date is valid, put the valid one first
	if i.HasDate() {
		return true
	}
	if j.HasDate() {
		return false
	}

	// If neither has a valid date, sort by title
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
