// Package filter narrows a list of Buchloe events down for output.
//
// Criteria combine with AND; list criteria (titles, locations) match when
// any entry matches:
//   - Date ranges (from/to dates, inclusive)
//   - Titles (substring matching, case-insensitive)
//   - Locations (substring matching, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//   - Upcoming only, optionally within the next N days
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.WeekendsOnly = true
//	f.Locations = []string{"Stadtpark"}
//	upcoming := f.Apply(events, time.Now())
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering on the start day. Only the calendar date of
	// the bounds is used.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Title filtering (case-insensitive substring match)
	Titles []string `json:"titles,omitempty"`

	// Location filtering (case-insensitive substring match)
	Locations []string `json:"locations,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`

	// UpcomingOnly drops events that are already over
	UpcomingOnly bool `json:"upcoming_only,omitempty"`

	// WithinDays keeps only events starting in the next N days (0 disables)
	WithinDays int `json:"within_days,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Titles:    []string{},
		Locations: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Titles) == 0 &&
		len(f.Locations) == 0 &&
		!f.WeekendsOnly &&
		!f.UpcomingOnly &&
		f.WithinDays <= 0
}

// Matches checks if an event matches all active filter criteria at now.
// An empty filter matches all events.
func (f *Filter) Matches(evt event.Event, now time.Time) bool {
	if f.IsEmpty() {
		return true
	}

	day := startDay(evt)

	if f.DateFrom != nil && day.Before(dateOnly(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && day.After(dateOnly(*f.DateTo)) {
		return false
	}

	if f.WeekendsOnly {
		weekday := day.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if f.UpcomingOnly && evt.IsPast(now) {
		return false
	}
	if !evt.IsWithinDays(now, f.WithinDays) {
		return false
	}

	if !containsAny(evt.Title, f.Titles) {
		return false
	}
	if !containsAny(evt.Location, f.Locations) {
		return false
	}

	return true
}

// Apply returns the events matching the filter at now. An empty filter
// returns the original slice unchanged.
func (f *Filter) Apply(events []event.Event, now time.Time) []event.Event {
	if f.IsEmpty() {
		return events
	}

	filtered := []event.Event{}
	for _, evt := range events {
		if f.Matches(evt, now) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "Von: 01.06.2025 | Bis: 30.06.2025 | Orte: Stadtpark | Nur Wochenende"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "Keine Filter aktiv"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("Von: %s", f.DateFrom.Format("02.01.2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("Bis: %s", f.DateTo.Format("02.01.2006")))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("Titel: %s", strings.Join(f.Titles, ", ")))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Orte: %s", strings.Join(f.Locations, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Nur Wochenende")
	}
	if f.UpcomingOnly {
		parts = append(parts, "Nur kommende")
	}
	if f.WithinDays > 0 {
		parts = append(parts, fmt.Sprintf("Nächste %d Tage", f.WithinDays))
	}

	return strings.Join(parts, " | ")
}

func containsAny(value string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	lower := strings.ToLower(value)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(n))) {
			return true
		}
	}
	return false
}

func startDay(evt event.Event) time.Time {
	return dateOnly(evt.Start.Time(time.UTC))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
