package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // Europe/Berlin without system zoneinfo

	ics "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

const (
	DefaultName        = "Buchloe Veranstaltungskalender"
	DefaultDescription = "Veranstaltungen der Stadt Buchloe"
	DefaultProductID   = "-//Buchloe//Veranstaltungskalender//DE"
	DefaultTimezone    = "Europe/Berlin"
	UIDDomain          = "buchloe.de"
)

// Options holds the feed metadata
type Options struct {
	Name        string
	Description string
	ProductID   string
	Timezone    string
}

// DefaultOptions returns the metadata of the public Buchloe feed.
func DefaultOptions() Options {
	return Options{
		Name:        DefaultName,
		Description: DefaultDescription,
		ProductID:   DefaultProductID,
		Timezone:    DefaultTimezone,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Name == "" {
		o.Name = d.Name
	}
	if o.Description == "" {
		o.Description = d.Description
	}
	if o.ProductID == "" {
		o.ProductID = d.ProductID
	}
	if o.Timezone == "" {
		o.Timezone = d.Timezone
	}
	return o
}

// UID returns the iCalendar UID of an event. It only depends on the
// identity key, so edits to description or URL keep the UID stable.
func UID(evt event.Event) string {
	return fmt.Sprintf("%s@%s", evt.Key().ID(), UIDDomain)
}

// GenerateICS renders events as an iCalendar feed with CRLF line endings.
// Timed events are placed
// in the feed timezone and written in UTC; whole-day events become DATE
// values with an exclusive end on the following day. now is used for
// DTSTAMP, CREATED and LAST-MODIFIED.
func GenerateICS(events []event.Event, opts Options, now time.Time) (string, error) {
	opts = opts.withDefaults()

	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return "", fmt.Errorf("loading timezone %s: %w", opts.Timezone, err)
	}

	cal := ics.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(opts.Name)
	cal.SetXWRCalDesc(opts.Description)
	cal.SetXWRTimezone(opts.Timezone)

	stamp := now.UTC()
	for _, evt := range events {
		vevent := cal.AddEvent(UID(evt))
		vevent.SetDtStampTime(stamp)
		vevent.SetCreatedTime(stamp)
		vevent.SetModifiedAt(stamp)

		vevent.SetSummary(event.CleanTitle(evt.Title))
		vevent.SetDescription(event.NormalizeDescription(evt.Description))
		vevent.SetLocation(event.CleanLocation(evt.Location))
		if evt.URL != "" {
			vevent.SetURL(evt.URL)
		}

		setTimes(vevent, evt, loc)

		vevent.SetClass(ics.ClassificationPublic)
		vevent.SetStatus(ics.ObjectStatusConfirmed)
	}

	return cal.Serialize(ics.WithNewLineWindows), nil
}

func setTimes(vevent *ics.VEvent, evt event.Event, loc *time.Location) {
	if !evt.Start.HasTime() && !evt.End.HasTime() {
		start := evt.Start.Time(loc)
		end := evt.End.Time(loc)
		if end.Before(start) {
			end = start
		}
		vevent.SetAllDayStartAt(start)
		vevent.SetAllDayEndAt(end.AddDate(0, 0, 1))
		return
	}

	start := evt.Start.Time(loc)
	end := evt.End.Time(loc)
	if !evt.End.HasTime() || end.Before(start) {
		end = start
	}
	vevent.SetStartAt(start)
	vevent.SetEndAt(end)
}

// WriteFile renders events and writes the feed to path, creating parent
// directories as needed.
func WriteFile(path string, events []event.Event, opts Options, now time.Time) error {
	content, err := GenerateICS(events, opts, now)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating feed directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing feed: %w", err)
	}
	return nil
}
