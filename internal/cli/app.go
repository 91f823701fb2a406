package cli

import (
	"context"
	"time"

	"leaveportal/internal/domain/calendar"
	"leaveportal/internal/domain/events"
)

// DataSource is the leave API as the CLI uses it. *client.Client satisfies it.
type DataSource interface {
	ListEvents(ctx context.Context) ([]calendar.DisplayEvent, error)
	ListEventsOn(ctx context.Context, date time.Time) ([]calendar.DisplayEvent, error)
	GetEvent(ctx context.Context, id string) (calendar.DisplayEvent, error)
	CreateEvents(ctx context.Context, batch []calendar.DisplayEvent) ([]calendar.DisplayEvent, error)
	UpdateEvent(ctx context.Context, id string, ev calendar.DisplayEvent) (calendar.DisplayEvent, error)
	DeleteEvent(ctx context.Context, id string) error
	Summaries(ctx context.Context, date *time.Time) ([]calendar.TitleSummary, error)
	Day(ctx context.Context, date time.Time) (events.DayView, error)
	ExportICS(ctx context.Context) ([]byte, error)
	RosterPDF(ctx context.Context, month time.Time) ([]byte, error)
	Apply(ctx context.Context, m calendar.Mutation) ([]calendar.DisplayEvent, error)
}

// App holds what the commands need.
type App struct {
	Source   DataSource
	Location *time.Location
	// DisallowPast rejects new leave that starts before today.
	DisallowPast bool
	Now          func() time.Time
	// IsInteractive reports whether stdin is a terminal; the bare root
	// command opens the calendar when it is.
	IsInteractive func() bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now().In(a.loc())
	}
	return time.Now().In(a.loc())
}

func (a *App) loc() *time.Location {
	if a.Location == nil {
		return time.Local
	}
	return a.Location
}

func (a *App) validateOptions() calendar.ValidateOptions {
	return calendar.ValidateOptions{DisallowPast: a.DisallowPast, Now: a.now()}
}
