package events

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"leaveportal/internal/domain/calendar"
	"leaveportal/internal/platform/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	svc := NewService(NewSQLiteStore(conn), time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) }
	return svc
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestServiceCreateSplitRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	segments := calendar.Split(calendar.LeaveRequest{
		Title:  "Alice",
		Start:  time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 3, 6, 17, 0, 0, 0, time.UTC),
		Reason: calendar.OptionalString("Trip"),
	})

	created, err := svc.Create(ctx, segments)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected 3 created events, got %d", len(created))
	}
	for _, ev := range created {
		if ev.ID == "" {
			t.Fatalf("expected created event to carry an id")
		}
		if ev.ReasonText() != "Trip" {
			t.Fatalf("expected reason Trip, got %q", ev.ReasonText())
		}
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != created[0].ID || listed[2].ID != created[2].ID {
		t.Fatalf("expected list in start order, got %+v", listed)
	}
	if !listed[2].End.Equal(segments[2].End) {
		t.Fatalf("expected last end %v, got %v", segments[2].End, listed[2].End)
	}
	if listed[0].Start.Location() != time.UTC {
		t.Fatalf("expected events in service location")
	}
}

func TestServiceCreateIsAllOrNothing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	batch := []calendar.DisplayEvent{
		{Title: "Bob", Start: utcDay(2024, 3, 4), End: calendar.EndOfDay(utcDay(2024, 3, 4))},
		{Title: "Bob", Start: utcDay(2024, 3, 6), End: utcDay(2024, 3, 5)},
	}

	_, err := svc.Create(ctx, batch)
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if !errors.Is(err, calendar.ErrEndBeforeStart) {
		t.Fatalf("expected wrapped ErrEndBeforeStart, got %v", err)
	}
	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(listed))
	}

	if _, err := svc.Create(ctx, nil); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected empty batch to be rejected, got %v", err)
	}
	if _, err := svc.Create(ctx, []calendar.DisplayEvent{{Title: "  ", Start: utcDay(2024, 1, 1), End: utcDay(2024, 1, 1)}}); !errors.Is(err, calendar.ErrTitleRequired) {
		t.Fatalf("expected blank title to be rejected, got %v", err)
	}
}

func TestServiceListForDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, []calendar.DisplayEvent{
		{Title: "Alice", Start: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), End: calendar.EndOfDay(utcDay(2024, 3, 4))},
		{Title: "Alice", Start: utcDay(2024, 3, 5), End: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)},
		{Title: "Bob", Start: utcDay(2024, 3, 7), End: calendar.EndOfDay(utcDay(2024, 3, 7))},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	day, err := svc.ListForDate(ctx, time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list for date: %v", err)
	}
	if len(day) != 1 || day[0].Title != "Alice" || day[0].Start.Day() != 5 {
		t.Fatalf("expected only Alice's 5 March entry, got %+v", day)
	}

	empty, err := svc.ListForDate(ctx, utcDay(2024, 3, 6))
	if err != nil {
		t.Fatalf("list for date: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no entries on 6 March, got %d", len(empty))
	}
}

func TestServiceUpdateGetDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, []calendar.DisplayEvent{
		{Title: "Cleo", Start: utcDay(2024, 4, 1), End: calendar.EndOfDay(utcDay(2024, 4, 1))},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created[0].ID

	updated, err := svc.Update(ctx, id, calendar.DisplayEvent{
		Title:  "Cleo",
		Start:  utcDay(2024, 4, 2),
		End:    calendar.EndOfDay(utcDay(2024, 4, 2)),
		Reason: calendar.OptionalString(" Moving "),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != id || updated.Start.Day() != 2 || updated.ReasonText() != "Moving" {
		t.Fatalf("unexpected updated event %+v", updated)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Start.Equal(updated.Start) {
		t.Fatalf("expected stored start %v, got %v", updated.Start, got.Start)
	}

	if _, err := svc.Update(ctx, id, calendar.DisplayEvent{Title: "Cleo"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected invalid update to fail, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", updated); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second delete to report ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestServiceSummariesAndDay(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	day := utcDay(2024, 5, 10)
	var batch []calendar.DisplayEvent
	for _, name := range []string{"Alice", "Bob", "Cleo"} {
		batch = append(batch, calendar.DisplayEvent{Title: name, Start: day, End: calendar.EndOfDay(day)})
	}
	batch = append(batch, calendar.Split(calendar.LeaveRequest{
		Title: "Dan",
		Start: utcDay(2024, 5, 8),
		End:   utcDay(2024, 5, 12),
	})...)
	if _, err := svc.Create(ctx, batch); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.Summaries(ctx, nil)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 summaries, got %d", len(all))
	}

	on := utcDay(2024, 5, 9)
	active, err := svc.Summaries(ctx, &on)
	if err != nil {
		t.Fatalf("summaries on date: %v", err)
	}
	if len(active) != 1 || active[0].Title != "Dan" {
		t.Fatalf("expected only Dan on 9 May, got %+v", active)
	}

	view, err := svc.Day(ctx, day.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if view.Date != "2024-05-10" {
		t.Fatalf("expected 2024-05-10, got %s", view.Date)
	}
	if len(view.Events) != 4 || !view.MultiOverlap {
		t.Fatalf("expected 4 events with overlap flag, got %d (%v)", len(view.Events), view.MultiOverlap)
	}
	if len(view.Active) != 4 {
		t.Fatalf("expected 4 active summaries, got %d", len(view.Active))
	}
}

func TestServicePurgeOlderThan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, []calendar.DisplayEvent{
		{Title: "Old", Start: utcDay(2023, 1, 2), End: calendar.EndOfDay(utcDay(2023, 1, 2))},
		{Title: "Recent", Start: utcDay(2024, 6, 1), End: calendar.EndOfDay(utcDay(2024, 6, 1))},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if removed, err := svc.PurgeOlderThan(ctx, 0); err != nil || removed != 0 {
		t.Fatalf("expected disabled purge, got %d %v", removed, err)
	}
	removed, err := svc.PurgeOlderThan(ctx, 90)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged event, got %d", removed)
	}
	left, _ := svc.List(ctx)
	if len(left) != 1 || left[0].Title != "Recent" {
		t.Fatalf("expected only Recent to remain, got %+v", left)
	}
}

func TestServiceExports(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, calendar.Split(calendar.LeaveRequest{
		Title:  "Alice",
		Start:  time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 6, 4, 17, 0, 0, 0, time.UTC),
		Reason: calendar.OptionalString("Conference"),
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ics, err := svc.ExportICS(ctx)
	if err != nil {
		t.Fatalf("export ics: %v", err)
	}
	decoded, err := DecodeICS(bytes.NewReader(ics), DecodeOptions{Location: time.UTC})
	if err != nil {
		t.Fatalf("decode exported ics: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Title != "Alice" || decoded[0].Reason == nil || *decoded[0].Reason != "Conference" {
		t.Fatalf("unexpected decoded events %+v", decoded)
	}
	if !decoded[0].Start.Equal(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected first start preserved, got %v", decoded[0].Start)
	}

	pdf, err := svc.RosterPDF(ctx, utcDay(2024, 6, 1), "June roster")
	if err != nil {
		t.Fatalf("roster pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected pdf output")
	}
}
