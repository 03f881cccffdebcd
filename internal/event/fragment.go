package event

import "strings"

// Role names a labeled text region of a listing fragment.
type Role int

const (
	RoleStill Role = iota // "Noch bis" marker
	RoleDayName
	RoleDay
	RoleMonth
	RoleYear
	RoleTitle
	RoleTime
	RoleLocation
	RoleDescription
)

var roleNames = map[Role]string{
	RoleStill:       "still",
	RoleDayName:     "dayname",
	RoleDay:         "day",
	RoleMonth:       "month",
	RoleYear:        "year",
	RoleTitle:       "title",
	RoleTime:        "time",
	RoleLocation:    "location",
	RoleDescription: "description",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Fragment gives typed access to the regions of one candidate event.
// Field reports false when the region is absent; present regions are
// returned with surrounding whitespace trimmed.
type Fragment interface {
	Field(role Role) (string, bool)
	DetailURL() (string, bool)
}

// StaticFragment is a Fragment backed by plain values.
type StaticFragment struct {
	Fields map[Role]string
	URL    string
}

// Field implements Fragment.
func (f StaticFragment) Field(role Role) (string, bool) {
	v, ok := f.Fields[role]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// DetailURL implements Fragment.
func (f StaticFragment) DetailURL() (string, bool) {
	return f.URL, f.URL != ""
}

// text returns the trimmed region text or "" when absent.
func text(f Fragment, role Role) string {
	v, _ := f.Field(role)
	return v
}
