package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leaveportal/internal/domain/calendar"
)

type Service struct {
	Store    Store
	Location *time.Location
	Now      func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{Store: store, Location: loc, Now: time.Now}
}

func (s *Service) normalize(events []calendar.DisplayEvent) []calendar.DisplayEvent {
	for i := range events {
		events[i].Start = events[i].Start.In(s.Location)
		events[i].End = events[i].End.In(s.Location)
	}
	return events
}

func (s *Service) List(ctx context.Context) ([]calendar.DisplayEvent, error) {
	events, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalize(events), nil
}

// ListForDate returns the entries overlapping the calendar day of date in
// the service location.
func (s *Service) ListForDate(ctx context.Context, date time.Time) ([]calendar.DisplayEvent, error) {
	day := date.In(s.Location)
	events, err := s.Store.ListForDay(ctx, calendar.StartOfDay(day), calendar.EndOfDay(day))
	if err != nil {
		return nil, err
	}
	return s.normalize(events), nil
}

func (s *Service) Get(ctx context.Context, id string) (calendar.DisplayEvent, error) {
	ev, err := s.Store.Get(ctx, id)
	if err != nil {
		return calendar.DisplayEvent{}, err
	}
	return s.normalize([]calendar.DisplayEvent{ev})[0], nil
}

func cleanEvent(ev calendar.DisplayEvent) (calendar.DisplayEvent, error) {
	ev.ID = ""
	ev.Title = strings.TrimSpace(ev.Title)
	if ev.Reason != nil {
		ev.Reason = calendar.OptionalString(strings.TrimSpace(*ev.Reason))
	}
	req := calendar.LeaveRequest{Title: ev.Title, Start: ev.Start, End: ev.End}
	if err := calendar.ValidateRequest(req, calendar.ValidateOptions{}); err != nil {
		return calendar.DisplayEvent{}, err
	}
	return ev, nil
}

// Create stores a batch of per-day entries, all or nothing.
func (s *Service) Create(ctx context.Context, events []calendar.DisplayEvent) ([]calendar.DisplayEvent, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: at least one event is required", ErrInvalidEvent)
	}
	if len(events) > MaxBatchSize {
		return nil, fmt.Errorf("%w: at most %d events per request", ErrInvalidEvent, MaxBatchSize)
	}
	cleaned := make([]calendar.DisplayEvent, 0, len(events))
	for i, ev := range events {
		ev, err := cleanEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", ErrInvalidEvent, i, err)
		}
		cleaned = append(cleaned, ev)
	}
	created, err := s.Store.CreateMany(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	return s.normalize(created), nil
}

func (s *Service) Update(ctx context.Context, id string, event calendar.DisplayEvent) (calendar.DisplayEvent, error) {
	ev, err := cleanEvent(event)
	if err != nil {
		return calendar.DisplayEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	updated, err := s.Store.Update(ctx, id, ev)
	if err != nil {
		return calendar.DisplayEvent{}, err
	}
	return s.normalize([]calendar.DisplayEvent{updated})[0], nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// Summaries aggregates every entry by title. With a date, only titles whose
// span covers that day are returned.
func (s *Service) Summaries(ctx context.Context, date *time.Time) ([]calendar.TitleSummary, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := calendar.Aggregate(events)
	if date != nil {
		return calendar.ActiveOn(summaries, date.In(s.Location)), nil
	}
	return summaries, nil
}

func (s *Service) Day(ctx context.Context, date time.Time) (DayView, error) {
	events, err := s.List(ctx)
	if err != nil {
		return DayView{}, err
	}
	day := calendar.StartOfDay(date.In(s.Location))
	dayEvents := calendar.EventsOn(events, day)
	return DayView{
		Date:         calendar.DayKey(day),
		Events:       dayEvents,
		MultiOverlap: len(dayEvents) > calendar.MultiEventThreshold,
		Active:       calendar.ActiveOn(calendar.Aggregate(events), day),
	}, nil
}

// Purge removes entries that ended before cutoff.
func (s *Service) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.Store.DeleteEndedBefore(ctx, cutoff)
}

// PurgeOlderThan removes entries that ended more than days ago.
func (s *Service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := calendar.StartOfDay(s.Now().In(s.Location)).AddDate(0, 0, -days)
	return s.Purge(ctx, cutoff)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.Store.Ping(ctx)
}

func (s *Service) ExportICS(ctx context.Context) ([]byte, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return EncodeICS(events, s.Now()), nil
}

// RosterPDF renders the summaries overlapping month as a PDF table.
func (s *Service) RosterPDF(ctx context.Context, month time.Time, title string) ([]byte, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return RenderRosterPDF(calendar.Aggregate(events), month.In(s.Location), title)
}
