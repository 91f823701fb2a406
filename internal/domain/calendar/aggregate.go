package calendar

import "time"

// Aggregate collapses events into one TitleSummary per distinct title, in
// the order titles first appear. Each title rescans the full input for its
// min start and max end.
func Aggregate(events []DisplayEvent) []TitleSummary {
	seen := make(map[string]struct{}, len(events))
	summaries := make([]TitleSummary, 0)
	for _, ev := range events {
		if _, ok := seen[ev.Title]; ok {
			continue
		}
		seen[ev.Title] = struct{}{}
		summaries = append(summaries, TitleSummary{
			Title:  ev.Title,
			Start:  ev.Start,
			End:    ev.End,
			Reason: cloneString(ev.Reason),
		})
	}

	for i := range summaries {
		summaries[i].MinStart, summaries[i].MaxEnd = spanOf(events, summaries[i].Title)
	}
	return summaries
}

func spanOf(events []DisplayEvent, title string) (time.Time, time.Time) {
	var minStart, maxEnd time.Time
	found := false
	for _, ev := range events {
		if ev.Title != title {
			continue
		}
		if !found || ev.Start.Before(minStart) {
			minStart = ev.Start
		}
		if !found || ev.End.After(maxEnd) {
			maxEnd = ev.End
		}
		found = true
	}
	return minStart, maxEnd
}

// IsActiveOn reports whether date falls within the summary's span, inclusive,
// comparing calendar days in date's location.
func IsActiveOn(summary TitleSummary, date time.Time) bool {
	loc := date.Location()
	day := StartOfDay(date)
	first := StartOfDay(summary.MinStart.In(loc))
	last := StartOfDay(summary.MaxEnd.In(loc))
	return !first.After(day) && !last.Before(day)
}

// ActiveOn keeps the summaries active on date, preserving order.
func ActiveOn(summaries []TitleSummary, date time.Time) []TitleSummary {
	out := make([]TitleSummary, 0, len(summaries))
	for _, summary := range summaries {
		if IsActiveOn(summary, date) {
			out = append(out, summary)
		}
	}
	return out
}
