package cli

import (
	"fmt"
	"strings"
	"time"

	"leaveportal/internal/domain/calendar"
)

func parseTime(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	return calendar.ParseDateTime(value, loc, endOfDay)
}

func parseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := calendar.ParseDay(strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", value)
	}
	return day, nil
}
