package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaveportal/internal/domain/calendar"
)

// memorySource is an in-memory DataSource.
type memorySource struct {
	events []calendar.DisplayEvent
	nextID int
	fail   error
}

func (s *memorySource) ListEvents(context.Context) ([]calendar.DisplayEvent, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	return append([]calendar.DisplayEvent(nil), s.events...), nil
}

func (s *memorySource) ListEventsOn(_ context.Context, date time.Time) ([]calendar.DisplayEvent, error) {
	var out []calendar.DisplayEvent
	dayStart, dayEnd := calendar.StartOfDay(date), calendar.EndOfDay(date)
	for _, ev := range s.events {
		if !ev.Start.After(dayEnd) && !ev.End.Before(dayStart) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *memorySource) Summaries(_ context.Context, date *time.Time) ([]calendar.TitleSummary, error) {
	summaries := calendar.Aggregate(s.events)
	if date != nil {
		summaries = calendar.ActiveOn(summaries, *date)
	}
	return summaries, nil
}

func (s *memorySource) Apply(_ context.Context, m calendar.Mutation) ([]calendar.DisplayEvent, error) {
	switch m.Kind {
	case calendar.MutationCreate:
		created := make([]calendar.DisplayEvent, 0, len(m.Events))
		for _, ev := range m.Events {
			s.nextID++
			ev.ID = strconv.Itoa(s.nextID)
			s.events = append(s.events, ev)
			created = append(created, ev)
		}
		return created, nil
	case calendar.MutationUpdate:
		for i := range s.events {
			if s.events[i].ID == m.ID {
				ev := m.Events[0]
				ev.ID = m.ID
				s.events[i] = ev
				return []calendar.DisplayEvent{ev}, nil
			}
		}
	case calendar.MutationDelete:
		for i := range s.events {
			if s.events[i].ID == m.ID {
				s.events = append(s.events[:i], s.events[i+1:]...)
				return nil, nil
			}
		}
	}
	return nil, errors.New("not found")
}

// driver feeds messages through the model synchronously and drains the
// returned commands. Commands that block (cursor blink) are skipped.
type driver struct {
	t     *testing.T
	model tea.Model
}

func newDriver(t *testing.T, m *Model) *driver {
	t.Helper()
	d := &driver{t: t, model: m}
	d.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	d.drain(m.Init(), 0)
	return d
}

func (d *driver) send(msg tea.Msg) {
	updated, cmd := d.model.Update(msg)
	d.model = updated
	d.drain(cmd, 0)
}

func (d *driver) key(k string) {
	switch k {
	case "enter":
		d.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		d.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "up":
		d.send(tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		d.send(tea.KeyMsg{Type: tea.KeyDown})
	default:
		d.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func (d *driver) drain(cmd tea.Cmd, depth int) {
	if cmd == nil || depth > 50 {
		return
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(50 * time.Millisecond):
		return
	}
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		return
	}
	updated, next := d.model.Update(msg)
	d.model = updated
	d.drain(next, depth+1)
}

func (d *driver) m() *Model { return d.model.(*Model) }

func at(m time.Month, day, hour int) time.Time {
	return time.Date(2024, m, day, hour, 0, 0, 0, time.UTC)
}

func newTestModel(src *memorySource) *Model {
	return New(src, Options{Location: time.UTC, Now: func() time.Time { return at(time.March, 13, 10) }})
}

func TestCreateLeaveThroughForm(t *testing.T) {
	src := &memorySource{}
	d := newDriver(t, newTestModel(src))
	require.False(t, d.m().loading)

	d.key("n")
	require.NotNil(t, d.m().form)
	assert.Equal(t, calendar.ModeCreatingNew, d.m().Editor().Mode())
	assert.Equal(t, "2024-03-13", d.m().fields.Start)

	d.send(formSubmittedMsg{fields: leaveFields{Title: "Alice", Start: "2024-03-13", End: "2024-03-15", Reason: "Trip"}})
	require.NoError(t, d.m().err)
	assert.Len(t, src.events, 3)
	assert.Len(t, d.m().events, 3)
	assert.Equal(t, calendar.ModeClosed, d.m().Editor().Mode())
	assert.Contains(t, d.m().View(), "Recorded 3 day(s) of leave")
}

func TestEndBeforeStartKeepsFormOpen(t *testing.T) {
	src := &memorySource{}
	d := newDriver(t, newTestModel(src))

	d.key("n")
	d.send(formSubmittedMsg{fields: leaveFields{Title: "Bob", Start: "2024-03-15", End: "2024-03-14"}})
	assert.ErrorIs(t, d.m().err, calendar.ErrEndBeforeStart)
	assert.NotNil(t, d.m().form)
	assert.Equal(t, calendar.ModeCreatingNew, d.m().Editor().Mode())
	assert.Empty(t, src.events)
	assert.Contains(t, d.m().View(), "End date cannot be before the start date.")

	d.key("esc")
	assert.Nil(t, d.m().form)
	assert.Equal(t, calendar.ModeClosed, d.m().Editor().Mode())
}

func TestSelectEditAndDelete(t *testing.T) {
	src := &memorySource{}
	_, _ = src.Apply(context.Background(), calendar.Mutation{Kind: calendar.MutationCreate, Events: calendar.Split(calendar.LeaveRequest{
		Title: "Cleo", Start: at(time.March, 13, 9), End: at(time.March, 14, 17),
	})})
	d := newDriver(t, newTestModel(src))

	d.key("enter")
	require.Equal(t, calendar.ModeEditingSingle, d.m().Editor().Mode())
	target, ok := d.m().Editor().Target()
	require.True(t, ok)
	assert.Equal(t, "1", target.ID)

	d.key("e")
	require.NotNil(t, d.m().form)
	assert.Equal(t, "2024-03-13 09:00", d.m().fields.Start)
	d.send(formSubmittedMsg{fields: leaveFields{Title: "Cleo", Start: "2024-03-13 09:00", End: "2024-03-13", Reason: "Dentist"}})
	require.NoError(t, d.m().err)
	assert.Equal(t, "Dentist", src.events[0].ReasonText())

	d.key("enter")
	require.Equal(t, calendar.ModeEditingSingle, d.m().Editor().Mode())
	d.key("x")
	assert.Len(t, src.events, 1)
	assert.Equal(t, "2", src.events[0].ID)
	assert.Equal(t, calendar.ModeClosed, d.m().Editor().Mode())
}

func TestCrowdedDayOpensChooser(t *testing.T) {
	src := &memorySource{}
	for _, name := range []string{"Alice", "Bob", "Cleo"} {
		_, _ = src.Apply(context.Background(), calendar.Mutation{Kind: calendar.MutationCreate, Events: []calendar.DisplayEvent{{
			Title: name, Start: at(time.March, 13, 0), End: calendar.EndOfDay(at(time.March, 13, 0)),
		}}})
	}
	d := newDriver(t, newTestModel(src))

	d.key("enter")
	require.Equal(t, calendar.ModeChoosingAmongMany, d.m().Editor().Mode())
	assert.Contains(t, d.m().View(), "Employee on leave on 13-March")

	d.key("2")
	require.Equal(t, calendar.ModeEditingSingle, d.m().Editor().Mode())
	target, _ := d.m().Editor().Target()
	assert.Equal(t, "Bob", target.Title)
}

func TestChooserReachesEntriesPastNine(t *testing.T) {
	src := &memorySource{}
	for i := 1; i <= 12; i++ {
		_, _ = src.Apply(context.Background(), calendar.Mutation{Kind: calendar.MutationCreate, Events: []calendar.DisplayEvent{{
			Title: fmt.Sprintf("Person %02d", i), Start: at(time.March, 13, 0), End: calendar.EndOfDay(at(time.March, 13, 0)),
		}}})
	}
	d := newDriver(t, newTestModel(src))

	d.key("enter")
	require.Equal(t, calendar.ModeChoosingAmongMany, d.m().Editor().Mode())
	for i := 0; i < 15; i++ {
		d.key("down")
	}
	d.key("up")
	assert.Contains(t, d.m().View(), "11. Person 11")
	assert.Equal(t, 10, d.m().pick)

	d.key("enter")
	require.Equal(t, calendar.ModeEditingSingle, d.m().Editor().Mode())
	target, _ := d.m().Editor().Target()
	assert.Equal(t, "Person 11", target.Title)
}

func TestDrillDownNavigatesSummaries(t *testing.T) {
	src := &memorySource{}
	for i := 1; i <= 10; i++ {
		_, _ = src.Apply(context.Background(), calendar.Mutation{Kind: calendar.MutationCreate, Events: calendar.Split(calendar.LeaveRequest{
			Title: fmt.Sprintf("Person %02d", i), Start: at(time.March, 12, 0), End: at(time.March, 14, 12),
		})})
	}
	d := newDriver(t, newTestModel(src))

	d.key("d")
	require.Equal(t, calendar.ModeViewingDay, d.m().Editor().Mode())
	require.Len(t, d.m().Editor().ActiveSummaries(), 10)
	for i := 0; i < 9; i++ {
		d.key("j")
	}
	d.key("enter")
	require.Equal(t, calendar.ModeEditingSingle, d.m().Editor().Mode())
	target, _ := d.m().Editor().Target()
	assert.Equal(t, "Person 10", target.Title)
}

func TestDrillDownChoosesSummary(t *testing.T) {
	src := &memorySource{}
	_, _ = src.Apply(context.Background(), calendar.Mutation{Kind: calendar.MutationCreate, Events: calendar.Split(calendar.LeaveRequest{
		Title: "Dan", Start: at(time.March, 12, 0), End: at(time.March, 14, 12),
	})})
	d := newDriver(t, newTestModel(src))

	d.key("d")
	require.Equal(t, calendar.ModeViewingDay, d.m().Editor().Mode())
	assert.Contains(t, d.m().View(), "Current leave active on March 13, 2024")

	d.key("1")
	require.Equal(t, calendar.ModeEditingSingle, d.m().Editor().Mode())
	form := d.m().Editor().Form()
	assert.True(t, form.Start.Equal(at(time.March, 12, 0)))
	assert.True(t, form.End.Equal(at(time.March, 14, 12)))
	target, _ := d.m().Editor().Target()
	assert.Equal(t, "2", target.ID)
}

func TestCursorMovesAndEmptyDayOpensForm(t *testing.T) {
	d := newDriver(t, newTestModel(&memorySource{}))
	d.key("l")
	d.key("j")
	assert.Equal(t, "2024-03-21", calendar.DayKey(d.m().cursor))
	d.key("]")
	assert.Equal(t, "2024-04-21", calendar.DayKey(d.m().cursor))
	d.key("t")
	assert.Equal(t, "2024-03-13", calendar.DayKey(d.m().cursor))

	d.key("enter")
	assert.Equal(t, calendar.ModeCreatingNew, d.m().Editor().Mode())
	assert.NotNil(t, d.m().form)
}

func TestLoadErrorIsShown(t *testing.T) {
	d := newDriver(t, newTestModel(&memorySource{fail: errors.New("api unreachable")}))
	assert.Contains(t, d.m().View(), "api unreachable")
}
