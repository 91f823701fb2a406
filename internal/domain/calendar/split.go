package calendar

import "time"

// Split turns a leave request into one DisplayEvent per calendar day it
// touches, in ascending day order. Days are taken in req.Start's location.
//
// The first day keeps the exact requested start and runs to end of day; the
// last day starts at midnight and keeps the exact requested end; days in
// between cover the whole day. The first-day rule is checked first, so a
// single-day request ends at end of day rather than at req.End.
//
// Split does not validate ordering: a request whose end precedes its start
// yields no events. Use ValidateRequest before calling it.
func Split(req LeaveRequest) []DisplayEvent {
	loc := req.Start.Location()
	firstDay := StartOfDay(req.Start)
	lastDay := StartOfDay(req.End.In(loc))

	var events []DisplayEvent
	for current := firstDay; !current.After(lastDay); current = nextDay(current) {
		switch {
		case current.Equal(firstDay):
			events = append(events, req.segment(req.Start, EndOfDay(current)))
		case current.Equal(lastDay):
			events = append(events, req.segment(current, req.End))
		default:
			events = append(events, req.segment(current, EndOfDay(current)))
		}
	}
	return events
}

func (r LeaveRequest) segment(start, end time.Time) DisplayEvent {
	return DisplayEvent{
		Title:  r.Title,
		Start:  start,
		End:    end,
		Reason: cloneString(r.Reason),
	}
}
