package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/daystreak/internal/constants"
)

// Calendar-day arithmetic works on YYYY-MM-DD strings in UTC so DST
// transitions never shift a day.

// ValidateDate checks that day is a well-formed YYYY-MM-DD calendar date.
func ValidateDate(day string) error {
	if _, err := time.Parse(constants.DateFormat, day); err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}
	return nil
}

// AddDays returns day shifted by n calendar days.
func AddDays(day string, n int) (string, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b string) (int, error) {
	ta, err := time.Parse(constants.DateFormat, a)
	if err != nil {
		return 0, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", a)
	}
	tb, err := time.Parse(constants.DateFormat, b)
	if err != nil {
		return 0, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", b)
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateFormat)
}

// DateRange returns every day from start to end inclusive, oldest first.
func DateRange(start, end string) ([]string, error) {
	n, err := DaysBetween(start, end)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("range start %s is after end %s", start, end)
	}
	days := make([]string, 0, n+1)
	for i := 0; i <= n; i++ {
		d, err := AddDays(start, i)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}
