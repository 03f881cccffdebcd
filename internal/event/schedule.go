package event

import "time"

// endOf returns the instant an event is over: the end clock for timed
// events, the following midnight for whole-day events.
func (e Event) endOf() time.Time {
	end := e.End.Time(time.UTC)
	if !e.End.HasTime() {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// IsPast reports whether the event is over at now. now is read as a wall
// clock, its zone is ignored.
func (e Event) IsPast(now time.Time) bool {
	return !e.endOf().After(wall(now))
}

// IsUpcoming reports whether the event has not started yet at now.
func (e Event) IsUpcoming(now time.Time) bool {
	return e.Start.Time(time.UTC).After(wall(now))
}

// IsWithinDays checks if an event starts within the next N days.
// Returns true if days <= 0 (feature disabled).
func (e Event) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	cutoff := wall(now).AddDate(0, 0, days)
	return !e.IsPast(now) && e.Start.Time(time.UTC).Before(cutoff)
}

func wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
