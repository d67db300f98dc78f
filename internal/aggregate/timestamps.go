package aggregate

import (
	"fmt"
	"time"

	"github.com/locvowork/feeltime/internal/domain"
)

const (
	// TimestampLayout is the fixed-width UTC form used wherever created_at is kept as text.
	// Fixed width makes lexical order equal chronological order.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
	// DateLayout is the form of a week_start bucket key.
	DateLayout = "2006-01-02"
)

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Canonical converts t to UTC at millisecond precision.
func Canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return Canonical(t).Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 and the space separated SQL spelling. Values without an
// offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported format", s)
}

// CeilMillis returns the smallest canonical instant that is not before t.
func CeilMillis(t time.Time) time.Time {
	c := Canonical(t)
	if c.Before(t) {
		c = c.Add(time.Millisecond)
	}
	return c
}

// LowerBound renders CeilMillis(t) in TimestampLayout.
func LowerBound(t time.Time) string {
	return CeilMillis(t).Format(TimestampLayout)
}

// UpperBound renders the largest canonical timestamp that is not after t.
func UpperBound(t time.Time) string {
	return FormatTimestamp(t)
}

// InRange reports whether t lies in the inclusive range r. Zero bounds are open.
func InRange(t time.Time, r domain.TimeRange) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// DayOfWeek returns the UTC day of week of t, 0=Sunday..6=Saturday.
func DayOfWeek(t time.Time) int {
	return int(t.UTC().Weekday())
}

// WeekStart returns the Monday (UTC midnight) of the week containing t as YYYY-MM-DD.
func WeekStart(t time.Time) string {
	u := t.UTC()
	back := (int(u.Weekday()) + 6) % 7
	monday := time.Date(u.Year(), u.Month(), u.Day()-back, 0, 0, 0, 0, time.UTC)
	return monday.Format(DateLayout)
}
