package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"leaveportal/internal/domain/calendar"
)

const fieldDateLayout = "2006-01-02 15:04"

// leaveFields are the string values bound to the huh form.
type leaveFields struct {
	Title  string
	Start  string
	End    string
	Reason string
}

func fieldsFromForm(f calendar.Form, loc *time.Location) leaveFields {
	return leaveFields{
		Title:  f.Title,
		Start:  formatField(f.Start, loc, false),
		End:    formatField(f.End, loc, true),
		Reason: f.Reason,
	}
}

// formatField prints a bare day for midnight, and for end of day on end
// fields, since the parser reads a bare end day as end of day.
func formatField(t time.Time, loc *time.Location, end bool) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(loc)
	if t.Equal(calendar.StartOfDay(t)) || (end && t.Equal(calendar.EndOfDay(t))) {
		return calendar.DayKey(t)
	}
	return t.Format(fieldDateLayout)
}

func (f leaveFields) toForm(loc *time.Location) (calendar.Form, error) {
	start, err := calendar.ParseDateTime(f.Start, loc, false)
	if err != nil {
		return calendar.Form{}, err
	}
	end, err := calendar.ParseDateTime(f.End, loc, true)
	if err != nil {
		return calendar.Form{}, err
	}
	return calendar.Form{Title: f.Title, Start: start, End: end, Reason: f.Reason}, nil
}

func newLeaveForm(title string, fields *leaveFields, loc *time.Location) *huh.Form {
	validDate := func(s string) error {
		_, err := calendar.ParseDateTime(s, loc, false)
		return err
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Employee name").
				Value(&fields.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return calendar.ErrTitleRequired
					}
					return nil
				}),
			huh.NewInput().
				Title("Start date").
				Placeholder("YYYY-MM-DD or YYYY-MM-DD HH:MM").
				Value(&fields.Start).
				Validate(validDate),
			huh.NewInput().
				Title("End date").
				Placeholder("YYYY-MM-DD or YYYY-MM-DD HH:MM").
				Value(&fields.End).
				Validate(validDate),
			huh.NewText().
				Title("Reason for leave").
				Value(&fields.Reason),
		).Title(title),
	).WithShowHelp(false).WithTheme(huh.ThemeBase())
}
