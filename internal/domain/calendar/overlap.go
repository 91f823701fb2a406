package calendar

import "time"

// MultiEventThreshold is the number of same-day events above which the
// chooser is shown instead of opening the editor directly.
const MultiEventThreshold = 2

// SameDayEvents returns every event whose start falls on the calendar day of
// target's start, target included. End days are not considered.
func SameDayEvents(events []DisplayEvent, target DisplayEvent) []DisplayEvent {
	out := make([]DisplayEvent, 0)
	for _, ev := range events {
		if SameDay(target.Start, ev.Start) {
			out = append(out, ev)
		}
	}
	return out
}

func IsMultiOverlap(events []DisplayEvent, target DisplayEvent) bool {
	return len(SameDayEvents(events, target)) > MultiEventThreshold
}

// BucketByDay groups events by the calendar day of their start in loc,
// ordered by first appearance.
func BucketByDay(events []DisplayEvent, loc *time.Location) []DayBucket {
	if loc == nil {
		loc = time.Local
	}
	index := make(map[string]int)
	buckets := make([]DayBucket, 0)
	for _, ev := range events {
		day := StartOfDay(ev.Start.In(loc))
		key := DayKey(day)
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, DayBucket{Day: day})
		}
		buckets[pos].Events = append(buckets[pos].Events, ev)
	}
	return buckets
}

// EventsOn returns the events starting on day, judged in day's location.
func EventsOn(events []DisplayEvent, day time.Time) []DisplayEvent {
	out := make([]DisplayEvent, 0)
	for _, ev := range events {
		if SameDay(day, ev.Start) {
			out = append(out, ev)
		}
	}
	return out
}
