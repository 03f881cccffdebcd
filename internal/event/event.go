package event

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Moment is either a calendar date without a time of day or a wall-clock
// date and time. It carries no zone; the feed attaches one on output.
type Moment struct {
	t      time.Time
	hasClk bool
}

// Date returns a whole-day moment.
func Date(year int, month time.Month, day int) Moment {
	return Moment{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateTime returns a moment with a time of day.
func DateTime(year int, month time.Month, day, hour, minute int) Moment {
	return Moment{t: time.Date(year, month, day, hour, minute, 0, 0, time.UTC), hasClk: true}
}

// DateOf returns the whole-day moment for the calendar date of t.
func DateOf(t time.Time) Moment {
	return Date(t.Year(), t.Month(), t.Day())
}

// At combines the calendar date of m with the given clock.
func (m Moment) At(c Clock) Moment {
	return DateTime(m.t.Year(), m.t.Month(), m.t.Day(), c.Hour, c.Minute)
}

// IsZero reports whether m is unset.
func (m Moment) IsZero() bool {
	return m.t.IsZero()
}

// HasTime reports whether m carries a time of day.
func (m Moment) HasTime() bool {
	return m.hasClk
}

// Time returns the wall clock of m in the given location. Whole-day moments
// map to midnight.
func (m Moment) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.t.Year(), m.t.Month(), m.t.Day(), m.t.Hour(), m.t.Minute(), m.t.Second(), 0, loc)
}

// Before reports whether m is strictly before o, comparing wall clocks.
func (m Moment) Before(o Moment) bool {
	return m.t.Before(o.t)
}

// Equal reports whether both moments have the same shape and value.
func (m Moment) Equal(o Moment) bool {
	return m.hasClk == o.hasClk && m.t.Equal(o.t)
}

// String returns the ISO-8601 text of m: YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS.
func (m Moment) String() string {
	if m.IsZero() {
		return ""
	}
	if m.hasClk {
		return m.t.Format(dateTimeLayout)
	}
	return m.t.Format(dateLayout)
}

// ParseMoment parses the ISO text produced by Moment.String. It also accepts
// minute precision and RFC 3339 input, in which case the offset is dropped
// and the wall clock kept.
func ParseMoment(s string) (Moment, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date(t.Year(), t.Month(), t.Day()), nil
	}
	for _, layout := range []string{dateTimeLayout, "2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Moment{
				t:      time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC),
				hasClk: true,
			}, nil
		}
	}
	return Moment{}, fmt.Errorf("invalid moment %q", s)
}

// MarshalJSON encodes m as its ISO text.
func (m Moment) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes the ISO text of a moment.
func (m *Moment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*m = Moment{}
		return nil
	}
	parsed, err := ParseMoment(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Event represents a single Buchloe event occurrence
type Event struct {
	Title       string `json:"title"`
	Start       Moment `json:"start"`
	End         Moment `json:"end"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Key is the identity of an event occurrence. Description and URL are not
// part of it, so edits to those fields between scrapes do not show up as
// new or removed events.
type Key struct {
	Title    string
	Start    string
	End      string
	Location string
}

// Key derives the identity key of e.
func (e Event) Key() Key {
	return Key{
		Title:    e.Title,
		Start:    e.Start.String(),
		End:      e.End.String(),
		Location: e.Location,
	}
}

// Equal reports whether two events are identical in every field.
func (e Event) Equal(o Event) bool {
	return e.Key() == o.Key() && e.Description == o.Description && e.URL == o.URL
}

// String returns a short human readable form of the event.
func (e Event) String() string {
	if e.Location == "" {
		return fmt.Sprintf("%s on %s", e.Title, e.Start)
	}
	return fmt.Sprintf("%s at %s on %s", e.Title, e.Location, e.Start)
}

// ID returns a deterministic identifier for the key
func (k Key) ID() string {
	h := sha1.New()
	h.Write([]byte(strings.Join([]string{k.Title, k.Start, k.End, k.Location}, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))
}
