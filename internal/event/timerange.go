package event

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// TimeRange holds the optional start and end clocks of an event.
type TimeRange struct {
	Start *Clock
	End   *Clock
}

var clockLayouts = []string{"15:04", "15"}

// ParseTimeRange parses texts like "Uhrzeit: 19:00 bis 22:00 Uhr" or
// "12:00 Uhr". ok is false when neither part yields a time; the event is
// then a whole-day event.
func ParseTimeRange(s string) (tr TimeRange, ok bool) {
	s = strings.TrimSpace(strings.Replace(s, "Uhrzeit:", "", 1))
	parts := strings.SplitN(s, "bis", 2)

	tr.Start = parseClock(parts[0])
	if len(parts) == 2 {
		tr.End = parseClock(parts[1])
	}
	return tr, tr.Start != nil || tr.End != nil
}

func parseClock(s string) *Clock {
	s = strings.TrimSpace(strings.ReplaceAll(s, "Uhr", ""))
	if s == "" {
		return nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &Clock{Hour: t.Hour(), Minute: t.Minute()}
		}
	}
	return nil
}
