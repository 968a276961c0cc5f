package utils

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in the database and the API.
const DateLayout = "2006-01-02"

// DateToUnix converts a YYYY-MM-DD date to a Unix timestamp at midnight UTC.
func DateToUnix(date string) (int64, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.Unix(), nil
}

// UnixToDate converts a Unix timestamp to a YYYY-MM-DD date in UTC.
func UnixToDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(DateLayout)
}

// TruncateToDay returns midnight UTC of t's calendar day.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
