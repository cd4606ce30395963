package core

import (
	"time"
)

// Day is the length of one simulation step.
const Day = 24 * time.Hour

// Midnight truncates t to 00:00 UTC of its calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)) / Day)
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Midnight(t), nil
}
