package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"leaveportal/internal/domain/calendar"
)

const cellWidth = 6

var (
	styleCell     = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	styleOutside  = styleCell.Foreground(ColorDim)
	styleBusy     = styleCell.Foreground(ColorBlue).Bold(true)
	styleCrowded  = styleCell.Foreground(ColorRed).Bold(true)
	styleToday    = styleCell.Underline(true)
	styleSelected = styleCell.Background(ColorCursor).Foreground(ColorYellow).Bold(true)
)

// MonthGrid describes one month view. Counts holds the number of entries
// starting on each day, keyed by calendar.DayKey.
type MonthGrid struct {
	Cursor time.Time
	Today  time.Time
	Counts map[string]int
}

// EventCounts counts entries per start day in loc.
func EventCounts(list []calendar.DisplayEvent, loc *time.Location) map[string]int {
	counts := make(map[string]int)
	for _, bucket := range calendar.BucketByDay(list, loc) {
		counts[calendar.DayKey(bucket.Day)] = len(bucket.Events)
	}
	return counts
}

// Render draws the Sunday-first month grid containing Cursor. Days with
// entries show the entry count; days above the overlap threshold are red.
func (g MonthGrid) Render() string {
	cursor := calendar.StartOfDay(g.Cursor)
	first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, cursor.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))

	var b strings.Builder
	b.WriteString(StyleHeader.Render(first.Format("January 2006")))
	b.WriteString("\n")
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		b.WriteString(styleCell.Foreground(ColorDim).Render(wd.String()[:3]))
	}
	b.WriteString("\n")

	day := start
	for week := 0; week < 6; week++ {
		if week > 0 && day.Month() != first.Month() {
			break
		}
		for i := 0; i < 7; i++ {
			b.WriteString(g.cell(day, first.Month()))
			day = day.AddDate(0, 0, 1)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (g MonthGrid) cell(day time.Time, month time.Month) string {
	label := fmt.Sprintf("%d", day.Day())
	count := g.Counts[calendar.DayKey(day)]
	if count > 0 {
		label = fmt.Sprintf("%d·%d", day.Day(), count)
	}

	style := styleCell
	switch {
	case calendar.SameDay(day, g.Cursor):
		style = styleSelected
	case day.Month() != month:
		style = styleOutside
	case count > calendar.MultiEventThreshold:
		style = styleCrowded
	case count > 0:
		style = styleBusy
	case !g.Today.IsZero() && calendar.SameDay(day, g.Today):
		style = styleToday
	}
	return style.Render(label)
}
