package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"leaveportal/internal/cli/formatter"
	"leaveportal/internal/domain/calendar"
)

// DataSource is the part of the leave API the calendar needs.
type DataSource interface {
	ListEvents(ctx context.Context) ([]calendar.DisplayEvent, error)
	ListEventsOn(ctx context.Context, date time.Time) ([]calendar.DisplayEvent, error)
	Summaries(ctx context.Context, date *time.Time) ([]calendar.TitleSummary, error)
	Apply(ctx context.Context, m calendar.Mutation) ([]calendar.DisplayEvent, error)
}

type Options struct {
	Location *time.Location
	Now      func() time.Time
	// DisallowPast rejects new leave starting before today.
	DisallowPast bool
}

type (
	loadedMsg struct {
		events    []calendar.DisplayEvent
		summaries []calendar.TitleSummary
		err       error
	}
	dayLoadedMsg struct {
		date   time.Time
		events []calendar.DisplayEvent
		err    error
	}
	appliedMsg struct {
		kind   calendar.MutationKind
		events []calendar.DisplayEvent
		err    error
	}
	formSubmittedMsg struct {
		fields leaveFields
	}
)

// Model is the interactive month calendar. Selection and form state live
// in a calendar.Editor; the model renders it and turns submitted edits into
// API mutations.
type Model struct {
	src    DataSource
	loc    *time.Location
	now    func() time.Time
	editor *calendar.Editor

	cursor    time.Time
	pick      int
	events    []calendar.DisplayEvent
	summaries []calendar.TitleSummary

	form   *huh.Form
	fields *leaveFields

	status  string
	err     error
	loading bool

	keys  keyMap
	help  help.Model
	width int
}

func New(src DataSource, opts Options) *Model {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Model{
		src:     src,
		loc:     loc,
		now:     now,
		editor:  calendar.NewEditor(calendar.ValidateOptions{DisallowPast: opts.DisallowPast}).WithClock(now),
		cursor:  calendar.StartOfDay(now().In(loc)),
		loading: true,
		keys:    defaultKeys(),
		help:    help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) load() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx := context.Background()
		list, err := src.ListEvents(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		summaries, err := src.Summaries(ctx, nil)
		return loadedMsg{events: list, summaries: summaries, err: err}
	}
}

func (m *Model) loadDay(date time.Time) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		list, err := src.ListEventsOn(context.Background(), date)
		return dayLoadedMsg{date: date, events: list, err: err}
	}
}

func (m *Model) apply(mut calendar.Mutation) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		list, err := src.Apply(context.Background(), mut)
		return appliedMsg{kind: mut.Kind, events: list, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.events = msg.events
		m.summaries = msg.summaries
		return m, nil

	case dayLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.editor.DrillDown(msg.date, msg.events, m.summaries)
		m.pick = 0
		return m, nil

	case appliedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = appliedStatus(msg)
		return m, m.load()

	case formSubmittedMsg:
		return m, m.submit(msg.fields)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.updateKeys(keyMsg)
	}
	return m, nil
}

func appliedStatus(msg appliedMsg) string {
	switch msg.kind {
	case calendar.MutationCreate:
		return fmt.Sprintf("Recorded %d day(s) of leave", len(msg.events))
	case calendar.MutationUpdate:
		return "Leave entry updated"
	default:
		return "Leave entry deleted"
	}
}

func (m *Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Close) {
		m.closeEditor()
		return m, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		fields := *m.fields
		m.form = nil
		return m, func() tea.Msg { return formSubmittedMsg{fields: fields} }
	case huh.StateAborted:
		m.closeEditor()
		return m, nil
	}
	return m, cmd
}

// submit pushes the form values through the editor. A validation error
// keeps the editor open and reopens the form with the same values.
func (m *Model) submit(fields leaveFields) tea.Cmd {
	m.form, m.fields = nil, nil
	form, err := fields.toForm(m.loc)
	if err == nil {
		err = m.editor.SetForm(form)
	}
	if err != nil {
		m.err = err
		return m.openForm(fields)
	}
	mut, err := m.editor.Submit()
	if err != nil {
		m.err = err
		return m.openForm(fields)
	}
	m.err = nil
	return m.apply(mut)
}

func (m *Model) openForm(fields leaveFields) tea.Cmd {
	title := "New leave"
	if m.editor.Mode() == calendar.ModeEditingSingle {
		title = "Edit leave"
	}
	m.fields = &fields
	m.form = newLeaveForm(title, m.fields, m.loc)
	return m.form.Init()
}

func (m *Model) closeEditor() {
	m.form = nil
	m.fields = nil
	m.editor.Close()
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.editor.Mode() {
	case calendar.ModeEditingSingle:
		return m.updateEditing(msg)
	case calendar.ModeChoosingAmongMany:
		return m.updateChoosing(msg)
	case calendar.ModeViewingDay:
		return m.updateViewingDay(msg)
	}
	return m.updateCalendar(msg)
}

func (m *Model) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(0, -7)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(0, 7)
	case key.Matches(msg, m.keys.PrevMonth):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.NextMonth):
		m.moveCursor(1, 0)
	case key.Matches(msg, m.keys.Today):
		m.cursor = calendar.StartOfDay(m.now().In(m.loc))
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.load()
	case key.Matches(msg, m.keys.New):
		return m, m.newLeave()
	case key.Matches(msg, m.keys.Select):
		onDay := calendar.EventsOn(m.events, m.cursor)
		if len(onDay) == 0 {
			return m, m.newLeave()
		}
		m.status = ""
		m.pick = 0
		m.editor.SelectEvent(m.events, onDay[0])
	case key.Matches(msg, m.keys.DrillDown):
		m.status = ""
		return m, m.loadDay(m.cursor)
	}
	return m, nil
}

func (m *Model) newLeave() tea.Cmd {
	m.status = ""
	m.err = nil
	m.editor.SelectSlot(m.cursor)
	return m.openForm(fieldsFromForm(m.editor.Form(), m.loc))
}

func (m *Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.closeEditor()
	case key.Matches(msg, m.keys.Edit):
		m.err = nil
		return m, m.openForm(fieldsFromForm(m.editor.Form(), m.loc))
	case key.Matches(msg, m.keys.Delete):
		mut, err := m.editor.Delete()
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, m.apply(mut)
	}
	return m, nil
}

func (m *Model) updateChoosing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Close) {
		m.closeEditor()
		return m, nil
	}
	choices := m.editor.Choices()
	if i, ok := m.choose(msg, len(choices)); ok {
		if err := m.editor.Choose(choices[i]); err != nil {
			m.err = err
		}
	}
	return m, nil
}

func (m *Model) updateViewingDay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Close) {
		m.closeEditor()
		return m, nil
	}
	active := m.editor.ActiveSummaries()
	if i, ok := m.choose(msg, len(active)); ok {
		if err := m.editor.ChooseSummary(active[i].Title); err != nil {
			m.err = err
		}
	}
	return m, nil
}

// choose moves the list selection with up/down and returns the index picked
// with enter or a digit key.
func (m *Model) choose(msg tea.KeyMsg, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.pick = max(m.pick-1, 0)
		return 0, false
	case key.Matches(msg, m.keys.Down):
		m.pick = min(m.pick+1, n-1)
		return 0, false
	case key.Matches(msg, m.keys.Select):
		return min(m.pick, n-1), true
	}
	return choiceIndex(msg, n)
}

// choiceIndex maps the digit keys 1-9 to a zero-based index below n.
func choiceIndex(msg tea.KeyMsg, n int) (int, bool) {
	i, err := strconv.Atoi(msg.String())
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func (m *Model) moveCursor(months, days int) {
	m.cursor = m.cursor.AddDate(0, months, days)
}

func (m *Model) View() string {
	var b strings.Builder
	grid := formatter.MonthGrid{
		Cursor: m.cursor,
		Today:  m.now().In(m.loc),
		Counts: formatter.EventCounts(m.events, m.loc),
	}
	b.WriteString(grid.Render())
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(formatter.Dim("Loading leave…") + "\n")
	case m.form != nil:
		b.WriteString(m.form.View() + "\n")
	default:
		b.WriteString(m.panel())
	}

	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render(errorText(m.err)) + "\n")
	} else if m.status != "" {
		b.WriteString(formatter.Success(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.helpKeys()))
	return b.String()
}

func errorText(err error) string {
	if errors.Is(err, calendar.ErrEndBeforeStart) {
		return "End date cannot be before the start date."
	}
	return err.Error()
}

func (m *Model) panel() string {
	switch m.editor.Mode() {
	case calendar.ModeEditingSingle:
		target, _ := m.editor.Target()
		f := m.editor.Form()
		var b strings.Builder
		b.WriteString(formatter.Header(target.Title) + "\n")
		fmt.Fprintf(&b, "%s → %s\n", f.Start.In(m.loc).Format("Mon 02 Jan 15:04"), f.End.In(m.loc).Format("Mon 02 Jan 15:04"))
		if f.Reason != "" {
			b.WriteString(formatter.Dim(f.Reason) + "\n")
		}
		return b.String()
	case calendar.ModeChoosingAmongMany:
		choices := m.editor.Choices()
		day := ""
		if len(choices) > 0 {
			day = choices[0].Start.In(m.loc).Format("02-January")
		}
		return formatter.Title("Employee on leave on "+day) + "\n" + formatter.FormatChoices(choices, m.pick)
	case calendar.ModeViewingDay:
		var b strings.Builder
		b.WriteString(formatter.Title("Current leave active on "+m.editor.Day().Format("January 2, 2006")) + "\n")
		active := m.editor.ActiveSummaries()
		if len(active) == 0 {
			b.WriteString(formatter.Dim("Nobody is on leave.") + "\n")
		}
		for i, s := range active {
			fmt.Fprintf(&b, "%s%d. %s  %s → %s\n", formatter.ChoiceMarker(i == m.pick), i+1, formatter.Bold(s.Title), calendar.DayKey(s.MinStart.In(m.loc)), calendar.DayKey(s.MaxEnd.In(m.loc)))
		}
		return b.String()
	}
	onDay := calendar.EventsOn(m.events, m.cursor)
	if len(onDay) == 0 {
		return formatter.Dim(m.cursor.Format("Mon 02 Jan 2006")+": no leave") + "\n"
	}
	return formatter.FormatEvents(onDay, m.loc)
}

func (m *Model) helpKeys() helpKeys {
	k := m.keys
	switch {
	case m.form != nil:
		return helpKeys{k.Close}
	case m.editor.Mode() == calendar.ModeEditingSingle:
		return helpKeys{k.Edit, k.Delete, k.Close}
	case m.editor.Mode() == calendar.ModeChoosingAmongMany, m.editor.Mode() == calendar.ModeViewingDay:
		return helpKeys{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter/1-9", "choose")),
			k.Close,
		}
	}
	return helpKeys{k.Left, k.Right, k.Up, k.Down, k.PrevMonth, k.NextMonth, k.New, k.Select, k.DrillDown, k.Quit}
}

// Editor exposes the selection state, mostly for tests.
func (m *Model) Editor() *calendar.Editor { return m.editor }
