package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone       SortOrder = ""
	SortByDate     SortOrder = "date"
	SortByTitle    SortOrder = "title"
	SortByLocation SortOrder = "location"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortNone, SortByDate, SortByTitle, SortByLocation:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'title' or 'location')", s)
	}
}

// sortEvents sorts a slice of events based on the specified sort order.
// SortNone keeps the page order.
func sortEvents(events []event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
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
	case SortByLocation:
		sort.SliceStable(events, func(i, j int) bool {
			li, lj := strings.ToLower(events[i].Location), strings.ToLower(events[j].Location)
			if li != lj {
				// Events without a location go last
				if li == "" || lj == "" {
					return lj == ""
				}
				return li < lj
			}
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their start
// Returns true if event i should come before event j
func compareByDate(i, j event.Event) bool {
	if !i.Start.Equal(j.Start) {
		return i.Start.Before(j.Start)
	}
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
