package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"leaveportal/internal/domain/calendar"
	"leaveportal/internal/domain/events"
)

const (
	dayLayout   = "Mon 02 Jan 2006"
	stampLayout = "2006-01-02 15:04"
)

// FormatEvents renders per-day leave entries as a table.
func FormatEvents(list []calendar.DisplayEvent, loc *time.Location) string {
	if len(list) == 0 {
		return Dim("No leave entries.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, ev := range list {
		rows = append(rows, []string{
			shortID(ev.ID),
			ev.Title,
			ev.Start.In(loc).Format(stampLayout),
			ev.End.In(loc).Format(stampLayout),
			ev.ReasonText(),
		})
	}
	return RenderTable([]string{"ID", "EMPLOYEE", "START", "END", "REASON"}, rows)
}

// FormatSummaries renders one row per employee spanning all of their entries.
func FormatSummaries(list []calendar.TitleSummary, loc *time.Location) string {
	if len(list) == 0 {
		return Dim("No leave on record.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.Title,
			s.MinStart.In(loc).Format(dayLayout),
			s.MaxEnd.In(loc).Format(dayLayout),
			s.ReasonText(),
		})
	}
	return RenderTable([]string{"EMPLOYEE", "FROM", "TO", "REASON"}, rows)
}

// FormatDay renders the drill-down for one day: the leaves active on it and,
// when more than two entries start that day, the numbered chooser list.
func FormatDay(view events.DayView, loc *time.Location) string {
	var b strings.Builder
	date, err := calendar.ParseDay(view.Date, loc)
	if err != nil {
		date = time.Time{}
	}

	b.WriteString(Title("Current leave active on " + date.Format("January 2, 2006")))
	b.WriteString("\n")
	if len(view.Active) == 0 {
		b.WriteString(Dim("Nobody is on leave.") + "\n")
	}
	for _, s := range view.Active {
		fmt.Fprintf(&b, "%s  %s → %s", Bold(s.Title), s.MinStart.In(loc).Format(dayLayout), s.MaxEnd.In(loc).Format(dayLayout))
		if r := s.ReasonText(); r != "" {
			b.WriteString("  " + Dim(r))
		}
		b.WriteString("\n")
	}

	if view.MultiOverlap {
		b.WriteString("\n")
		b.WriteString(Warning("Employee on leave on " + date.Format("02-January")))
		b.WriteString("\n")
		b.WriteString(FormatChoices(view.Events, -1))
	}
	return b.String()
}

// FormatChoices numbers entries from 1 for the multi-event chooser and marks
// the selected index. Pass -1 for no selection.
func FormatChoices(list []calendar.DisplayEvent, selected int) string {
	var b strings.Builder
	for i, ev := range list {
		line := strconv.Itoa(i+1) + ". " + ev.Title
		if r := ev.ReasonText(); r != "" {
			line += " " + Dim("("+r+")")
		}
		b.WriteString(ChoiceMarker(i == selected) + line + "\n")
	}
	return b.String()
}

// ChoiceMarker prefixes a list line, pointing at the selected one.
func ChoiceMarker(selected bool) string {
	if selected {
		return StyleBlue.Render("›") + " "
	}
	return "  "
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
