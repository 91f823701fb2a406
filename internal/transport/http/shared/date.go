package shared

import (
	"time"

	"leaveportal/internal/domain/calendar"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD. Bare dates are midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return calendar.ParseDay(value, loc)
}

// ParseMonth accepts YYYY-MM and returns the first of that month in loc.
func ParseMonth(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01", value, loc)
}
