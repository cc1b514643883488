package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/gradually/internal/constants"
)

// ParseDate parses a date string (YYYY-MM-DD) as midnight UTC.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
	}
	return t, nil
}

// FormatDate formats the calendar date of t (in t's location) as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// TodayIn returns the calendar date of now as observed in loc.
func TodayIn(now time.Time, loc *time.Location) string {
	return FormatDate(now.In(loc))
}

// AddDays shifts a YYYY-MM-DD date string by n calendar days.
func AddDays(dateStr string, n int) (string, error) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// ValidateDateFormat checks if the string matches the standard date format.
func ValidateDateFormat(dateStr string) bool {
	_, err := ParseDate(dateStr)
	return err == nil
}
