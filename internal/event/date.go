package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Pattern identifies how a listing presents its date.
type Pattern int

const (
	PatternUnknown Pattern = iota
	PatternNormal
	PatternNochBis // "Noch bis": still running until the given date
)

func (p Pattern) String() string {
	switch p {
	case PatternNormal:
		return "normal"
	case PatternNochBis:
		return "noch_bis"
	default:
		return "unknown"
	}
}

// DateComponents holds the raw date fields of a fragment.
type DateComponents struct {
	DayName string
	Day     string
	Month   string
	Year    string
	Pattern Pattern
}

// Complete reports whether all four date fields are non-empty.
func (c DateComponents) Complete() bool {
	return c.DayName != "" && c.Day != "" && c.Month != "" && c.Year != ""
}

// DetectPattern classifies the date presentation of a fragment.
func DetectPattern(f Fragment) Pattern {
	if still, ok := f.Field(RoleStill); ok && strings.Contains(strings.ToLower(still), "noch bis") {
		return PatternNochBis
	}
	for _, role := range []Role{RoleDayName, RoleDay, RoleMonth, RoleYear} {
		if _, ok := f.Field(role); !ok {
			return PatternUnknown
		}
	}
	return PatternNormal
}

// ExtractDateComponents pulls the date fields out of a fragment. Missing
// fields are left empty; the resolver rejects them.
func ExtractDateComponents(f Fragment) DateComponents {
	return DateComponents{
		DayName: text(f, RoleDayName),
		Day:     text(f, RoleDay),
		Month:   strings.TrimRight(text(f, RoleMonth), "."),
		Year:    text(f, RoleYear),
		Pattern: DetectPattern(f),
	}
}

// monthNumbers maps lowercased German month names and abbreviations, plus
// the English spellings seen on the site, to month numbers.
var monthNumbers = map[string]time.Month{
	"jan":       time.January,
	"januar":    time.January,
	"feb":       time.February,
	"februar":   time.February,
	"mär":       time.March,
	"märz":      time.March,
	"mar":       time.March,
	"apr":       time.April,
	"april":     time.April,
	"mai":       time.May,
	"may":       time.May,
	"jun":       time.June,
	"juni":      time.June,
	"jul":       time.July,
	"juli":      time.July,
	"aug":       time.August,
	"august":    time.August,
	"sep":       time.September,
	"sept":      time.September,
	"september": time.September,
	"okt":       time.October,
	"oktober":   time.October,
	"nov":       time.November,
	"november":  time.November,
	"dez":       time.December,
	"dezember":  time.December,
}

// LookupMonth resolves a month name through the static table.
func LookupMonth(name string) (time.Month, bool) {
	m, ok := monthNumbers[foldName(strings.TrimRight(strings.TrimSpace(name), "."))]
	return m, ok
}

// foldName lowercases s in NFC form so decomposed umlauts match the tables.
func foldName(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// DateError describes a failed date resolution.
type DateError struct {
	Components DateComponents
	Reason     string
	Err        error
}

func (e *DateError) Error() string {
	c := e.Components
	msg := fmt.Sprintf("%s: %s (dayname=%q day=%q month=%q year=%q pattern=%s)",
		ErrDateResolutionFailed, e.Reason, c.DayName, c.Day, c.Month, c.Year, c.Pattern)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrDateResolutionFailed and the underlying cause.
func (e *DateError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDateResolutionFailed}
	}
	return []error{ErrDateResolutionFailed, e.Err}
}

// Locale parses a composed "dayname day month year" date in a specific
// language. It is the fallback tier of the Resolver.
type Locale interface {
	ParseDate(dayName, day, month, year string) (time.Time, error)
}

// Resolver turns DateComponents into calendar dates.
type Resolver struct {
	locale Locale
}

// NewResolver creates a Resolver with the given fallback locale. A nil
// locale disables the fallback.
func NewResolver(locale Locale) *Resolver {
	return &Resolver{locale: locale}
}

var defaultResolver = NewResolver(German)

// ResolveDate resolves components with the German fallback locale.
func ResolveDate(c DateComponents) (Moment, error) {
	return defaultResolver.Resolve(c)
}

// Resolve returns the whole-day moment for c. The month table is tried
// first; only when the month is unknown does the locale parse the composed
// text. A known month with an impossible day or year fails right away.
func (r *Resolver) Resolve(c DateComponents) (Moment, error) {
	if !c.Complete() {
		return Moment{}, &DateError{Components: c, Reason: "missing date components"}
	}

	if month, ok := LookupMonth(c.Month); ok {
		t, err := buildDate(c.Year, month, c.Day)
		if err != nil {
			return Moment{}, &DateError{Components: c, Reason: "invalid date", Err: err}
		}
		return DateOf(t), nil
	}

	if r.locale == nil {
		return Moment{}, &DateError{Components: c, Reason: "unknown month"}
	}

	t, err := r.locale.ParseDate(c.DayName, c.Day, c.Month, c.Year)
	if err != nil {
		return Moment{}, &DateError{Components: c, Reason: "unparseable date", Err: err}
	}
	return DateOf(t), nil
}

// buildDate constructs a date and rejects values time.Date would normalize,
// such as 31 June.
func buildDate(yearText string, month time.Month, dayText string) (time.Time, error) {
	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year %q", yearText)
	}
	day, err := strconv.Atoi(strings.TrimSpace(dayText))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q", dayText)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("day %d out of range for %s %d", day, month, year)
	}
	return t, nil
}

// German parses dates with full German weekday names and the abbreviated
// month names of the de_DE locale.
var German Locale = germanLocale{}

type germanLocale struct{}

var germanWeekdays = map[string]time.Weekday{
	"montag":     time.Monday,
	"dienstag":   time.Tuesday,
	"mittwoch":   time.Wednesday,
	"donnerstag": time.Thursday,
	"freitag":    time.Friday,
	"samstag":    time.Saturday,
	"sonnabend":  time.Saturday,
	"sonntag":    time.Sunday,
}

var germanShortMonths = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mär": time.March,
	"apr": time.April,
	"mai": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"okt": time.October,
	"nov": time.November,
	"dez": time.December,
}

func (germanLocale) ParseDate(dayName, day, month, year string) (time.Time, error) {
	if _, ok := germanWeekdays[foldName(strings.TrimSpace(dayName))]; !ok {
		return time.Time{}, fmt.Errorf("unknown weekday %q", dayName)
	}
	m, ok := germanShortMonths[foldName(strings.TrimSpace(month))]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q", month)
	}
	if len(strings.TrimSpace(year)) != 4 {
		return time.Time{}, fmt.Errorf("invalid year %q", year)
	}
	return buildDate(year, m, day)
}
