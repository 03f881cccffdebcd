package event

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	locationLabel    = "Veranstaltungsort:"
	descriptionLabel = "Beschreibung:"
)

var (
	whitespaceRun     = regexp.MustCompile(`\s+`)
	blankLineRun      = regexp.MustCompile(`\n\s*\n+`)
	spaceBeforePunct  = regexp.MustCompile(`[ \t]+([,.;:!?])`)
	spacesAfterPunct  = regexp.MustCompile(`([,.;:!?])[ \t]+`)
	lineEndingsToUnix = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Input holds the raw parts of one event as extracted from a fragment.
type Input struct {
	Title       string
	Date        Moment // whole-day date; zero when unresolved
	Times       TimeRange
	Location    string
	Description string // already label-free when taken from a detail page
	URL         string
}

// Normalize combines the raw parts into an Event. Title and date are
// required. Without a start time the event starts on the bare date; without
// an end time it ends where it starts.
func Normalize(in Input) (Event, error) {
	title := CleanTitle(in.Title)
	if title == "" || in.Date.IsZero() {
		return Event{}, fmt.Errorf("%w: title=%q date=%q", ErrEssentialDataMissing, title, in.Date)
	}

	date := DateOf(in.Date.Time(nil))
	start := date
	if in.Times.Start != nil {
		start = date.At(*in.Times.Start)
	}
	end := start
	if in.Times.End != nil {
		end = date.At(*in.Times.End)
	}

	return Event{
		Title:       title,
		Start:       start,
		End:         end,
		Location:    CleanLocation(in.Location),
		Description: CleanDescription(in.Description),
		URL:         strings.TrimSpace(in.URL),
	}, nil
}

// CleanTitle collapses whitespace runs to single spaces.
func CleanTitle(s string) string {
	return collapse(s)
}

// CleanLocation strips the "Veranstaltungsort:" label and collapses
// whitespace.
func CleanLocation(s string) string {
	return collapse(strings.TrimPrefix(strings.TrimSpace(s), locationLabel))
}

// CleanDescription strips the "Beschreibung:" label and normalizes the
// remaining text.
func CleanDescription(s string) string {
	return NormalizeDescription(strings.TrimPrefix(strings.TrimSpace(s), descriptionLabel))
}

// NormalizeDescription collapses whitespace within lines, reduces runs of
// blank lines to a single blank line and removes spaces before punctuation.
// Runs of spaces after punctuation become one space.
func NormalizeDescription(s string) string {
	s = norm.NFC.String(lineEndingsToUnix.Replace(s))
	s = blankLineRun.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = collapse(line)
	}
	s = strings.Join(lines, "\n")

	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = spacesAfterPunct.ReplaceAllString(s, "$1 ")
	return strings.TrimSpace(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(norm.NFC.String(s), " "))
}
