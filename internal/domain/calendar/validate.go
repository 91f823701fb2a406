package calendar

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTitleRequired  = errors.New("employee name is required")
	ErrDatesRequired  = errors.New("start and end dates are required")
	ErrEndBeforeStart = errors.New("end date cannot be before the start date")
	ErrStartInPast    = errors.New("start date cannot be in the past")
)

type ValidateOptions struct {
	// DisallowPast rejects requests starting on a day before Now.
	DisallowPast bool
	Now          time.Time
}

// ValidateRequest runs the checks a request must pass before Split.
func ValidateRequest(req LeaveRequest, opts ValidateOptions) error {
	if strings.TrimSpace(req.Title) == "" {
		return ErrTitleRequired
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return ErrDatesRequired
	}
	if req.Start.After(req.End) {
		return ErrEndBeforeStart
	}
	if opts.DisallowPast {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		today := StartOfDay(now.In(req.Start.Location()))
		if StartOfDay(req.Start).Before(today) {
			return ErrStartInPast
		}
	}
	return nil
}
