package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage form of a calendar date
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date. Dates carry no timezone and
// are represented as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeDate drops the clock part, keeping the calendar date as seen in t's location
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a normalized date by n calendar days
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DatesBetween returns every date of the inclusive range in ascending order.
// Empty when end is before start.
func DatesBetween(start, end time.Time) []time.Time {
	start, end = NormalizeDate(start), NormalizeDate(end)
	if end.Before(start) {
		return nil
	}
	dates := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = AddDays(d, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DaysInclusive counts the dates of an inclusive range
func DaysInclusive(start, end time.Time) int {
	return int(NormalizeDate(end).Sub(NormalizeDate(start)).Hours()/24) + 1
}

// IntervalContains reports whether day lies in [start, end]; a nil end means
// a single-day interval
func IntervalContains(start time.Time, end *time.Time, day time.Time) bool {
	last := start
	if end != nil {
		last = *end
	}
	return !day.Before(start) && !day.After(last)
}

var timeOfDayLayouts = []string{"15:04:05", "15:04"}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS and returns the canonical
// HH:MM:SS form
func ParseTimeOfDay(s string) (string, error) {
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, expected HH:MM or HH:MM:SS", s)
}

// ValidateTimeOfDay checks an optional time-of-day value
func ValidateTimeOfDay(s *string) error {
	if s == nil {
		return nil
	}
	_, err := ParseTimeOfDay(*s)
	return err
}

// CompareTimeOfDay orders two optional times; nil sorts after any value
func CompareTimeOfDay(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	ca, errA := ParseTimeOfDay(*a)
	cb, errB := ParseTimeOfDay(*b)
	if errA != nil || errB != nil {
		ca, cb = *a, *b
	}
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	default:
		return 0
	}
}
