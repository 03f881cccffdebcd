package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

var (
	// "1.-15. März" or "1-15 Juni"
	sameMonthRange = regexp.MustCompile(`^(\d{1,2})\.?\s*-\s*(\d{1,2})\.?\s*(\pL+)\.?$`)
	// "25. Dezember - 5. Januar"
	crossMonthRange = regexp.MustCompile(`^(\d{1,2})\.?\s*(\pL+)\.?\s*-\s*(\d{1,2})\.?\s*(\pL+)\.?$`)
	// "März"
	wholeMonth = regexp.MustCompile(`^(\pL+)\.?$`)
	// "14.09.2025" or "01.06.2025 - 30.06.2025"
	numericRange = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})(?:\s*-\s*(\d{1,2})\.(\d{1,2})\.(\d{4}))?$`)
)

// ParseDateRange parses a German date range string into start and end dates.
//
// Supported formats:
//   - "1.-15. März" or "1-15 März" - Same month, different days
//   - "25. Dezember - 5. Januar" - Different months
//   - "März" or "Mär" - Entire month
//   - "14.09.2025" or "01.06.2025 - 30.06.2025" - Explicit dates
//
// For formats without a year the year is inferred from now:
//   - If the month is already past, assumes next year
//   - Otherwise, uses the current year
//   - For cross-month ranges, if end month < start month, end is in next year
//
// Returns (dateFrom, dateTo, error). Times are in UTC.
// Start time is at 00:00:00, end time is at 23:59:59.
func ParseDateRange(input string, now time.Time) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := numericRange.FindStringSubmatch(input); m != nil {
		from, err := buildDay(m[3], m[2], m[1])
		if err != nil {
			return nil, nil, err
		}
		to := from
		if m[4] != "" {
			if to, err = buildDay(m[6], m[5], m[4]); err != nil {
				return nil, nil, err
			}
		}
		return bounds(from, to)
	}

	if m := sameMonthRange.FindStringSubmatch(input); m != nil {
		month, err := parseMonth(m[3])
		if err != nil {
			return nil, nil, err
		}
		year := getYearForMonth(month, now)
		from, err := dayOf(year, month, m[1])
		if err != nil {
			return nil, nil, err
		}
		to, err := dayOf(year, month, m[2])
		if err != nil {
			return nil, nil, err
		}
		return bounds(from, to)
	}

	if m := crossMonthRange.FindStringSubmatch(input); m != nil {
		month1, err := parseMonth(m[2])
		if err != nil {
			return nil, nil, err
		}
		month2, err := parseMonth(m[4])
		if err != nil {
			return nil, nil, err
		}

		year1 := getYearForMonth(month1, now)
		year2 := year1
		if month2 < month1 {
			year2++
		}

		from, err := dayOf(year1, month1, m[1])
		if err != nil {
			return nil, nil, err
		}
		to, err := dayOf(year2, month2, m[3])
		if err != nil {
			return nil, nil, err
		}
		return bounds(from, to)
	}

	if m := wholeMonth.FindStringSubmatch(input); m != nil {
		month, err := parseMonth(m[1])
		if err != nil {
			return nil, nil, err
		}
		year := getYearForMonth(month, now)
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Last day of month
		to := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		return bounds(from, to)
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use '1.-15. März', '25. Dezember - 5. Januar', 'März' or '01.06.2025 - 30.06.2025'")
}

func bounds(from, to time.Time) (*time.Time, *time.Time, error) {
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
	if from.After(end) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &end, nil
}

// parseMonth resolves a German month name or abbreviation
func parseMonth(name string) (time.Month, error) {
	month, ok := event.LookupMonth(name)
	if !ok {
		return 0, fmt.Errorf("invalid month: %s", name)
	}
	return month, nil
}

func dayOf(year int, month time.Month, dayText string) (time.Time, error) {
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %s", dayText)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("invalid day: %s", dayText)
	}
	return t, nil
}

func buildDay(yearText, monthText, dayText string) (time.Time, error) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %s", yearText)
	}
	m, err := strconv.Atoi(monthText)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("invalid month: %s", monthText)
	}
	return dayOf(year, time.Month(m), dayText)
}

// getYearForMonth returns the appropriate year for a given month.
// If the month has already passed this year, returns next year.
func getYearForMonth(month time.Month, now time.Time) int {
	year := now.Year()
	if month < now.Month() {
		year++
	}
	return year
}
