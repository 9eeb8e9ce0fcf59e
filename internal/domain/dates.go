package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// CivilDate truncates t to its calendar date in t's own location and returns it
// as UTC midnight. All plan and itinerary dates use this representation.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func AddDays(date time.Time, n int) time.Time { return date.AddDate(0, 0, n) }

// DaysBetween returns b - a in whole calendar days.
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)).Hours() / 24)
}

func FormatDate(t time.Time) string { return t.Format(DateLayout) }
