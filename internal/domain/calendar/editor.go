package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid editor transition")
	ErrNothingSelected   = errors.New("no leave entry selected")
)

// Mode is the state of the leave editor.
type Mode int

const (
	ModeClosed Mode = iota
	ModeCreatingNew
	ModeEditingSingle
	ModeChoosingAmongMany
	ModeViewingDay
)

func (m Mode) String() string {
	switch m {
	case ModeClosed:
		return "closed"
	case ModeCreatingNew:
		return "creating"
	case ModeEditingSingle:
		return "editing"
	case ModeChoosingAmongMany:
		return "choosing"
	case ModeViewingDay:
		return "viewing_day"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Form holds the editable fields of the leave dialog.
type Form struct {
	Title  string
	Start  time.Time
	End    time.Time
	Reason string
}

func (f Form) Request() LeaveRequest {
	return LeaveRequest{
		Title:  strings.TrimSpace(f.Title),
		Start:  f.Start,
		End:    f.End,
		Reason: OptionalString(strings.TrimSpace(f.Reason)),
	}
}

type MutationKind int

const (
	MutationCreate MutationKind = iota + 1
	MutationUpdate
	MutationDelete
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is the change the editor asks the data source to apply.
// Create carries every split day; Update carries the first split day for ID;
// Delete carries only ID.
type Mutation struct {
	Kind   MutationKind
	ID     string
	Events []DisplayEvent
}

// Editor is the leave dialog state machine. The zero value is a closed editor
// with default validation.
type Editor struct {
	mode    Mode
	form    Form
	target  *DisplayEvent
	choices []DisplayEvent
	day     time.Time
	dayAll  []DisplayEvent
	active  []TitleSummary
	opts    ValidateOptions
	clock   func() time.Time
}

func NewEditor(opts ValidateOptions) *Editor {
	return &Editor{opts: opts, clock: time.Now}
}

// WithClock replaces the clock used for the past-date check.
func (e *Editor) WithClock(clock func() time.Time) *Editor {
	e.clock = clock
	return e
}

func (e *Editor) Mode() Mode { return e.mode }
func (e *Editor) Form() Form { return e.form }
func (e *Editor) Choices() []DisplayEvent { return e.choices }
func (e *Editor) Day() time.Time { return e.day }
func (e *Editor) ActiveSummaries() []TitleSummary { return e.active }

// Target returns the entry being edited.
func (e *Editor) Target() (DisplayEvent, bool) {
	if e.target == nil {
		return DisplayEvent{}, false
	}
	return *e.target, true
}

// SelectSlot opens an empty form for a new leave on the clicked day.
func (e *Editor) SelectSlot(date time.Time) {
	e.reset()
	e.mode = ModeCreatingNew
	day := StartOfDay(date)
	e.form = Form{Start: day, End: day}
}

// SelectEvent opens the editor for ev, or the chooser when more than
// MultiEventThreshold events start on the same day.
func (e *Editor) SelectEvent(all []DisplayEvent, ev DisplayEvent) {
	sameDay := SameDayEvents(all, ev)
	e.reset()
	if len(sameDay) > MultiEventThreshold {
		e.mode = ModeChoosingAmongMany
		e.choices = sameDay
		return
	}
	e.edit(ev, ev.Start, ev.End)
}

// Choose picks one entry from the chooser.
func (e *Editor) Choose(ev DisplayEvent) error {
	if e.mode != ModeChoosingAmongMany {
		return fmt.Errorf("choose from %s: %w", e.mode, ErrInvalidTransition)
	}
	e.reset()
	e.edit(ev, ev.Start, ev.End)
	return nil
}

// DrillDown shows the leaves active on date. dayEvents are the entries the
// data source returned for that day; summaries come from the full list.
func (e *Editor) DrillDown(date time.Time, dayEvents []DisplayEvent, summaries []TitleSummary) {
	e.reset()
	e.mode = ModeViewingDay
	e.day = StartOfDay(date)
	e.dayAll = dayEvents
	e.active = ActiveOn(summaries, date)
}

// ChooseSummary opens the editor for one of the active leaves of the
// drilled-down day. The form spans the whole leave; the entry updated is the
// one with that title starting on the day, else the first with that title.
func (e *Editor) ChooseSummary(title string) error {
	if e.mode != ModeViewingDay {
		return fmt.Errorf("choose summary from %s: %w", e.mode, ErrInvalidTransition)
	}
	var summary *TitleSummary
	for i := range e.active {
		if e.active[i].Title == title {
			summary = &e.active[i]
			break
		}
	}
	if summary == nil {
		return ErrNothingSelected
	}
	target, ok := pickEntry(e.dayAll, title, e.day)
	if !ok {
		return ErrNothingSelected
	}
	minStart, maxEnd := summary.MinStart, summary.MaxEnd
	e.reset()
	e.edit(target, minStart, maxEnd)
	return nil
}

func pickEntry(events []DisplayEvent, title string, day time.Time) (DisplayEvent, bool) {
	var fallback *DisplayEvent
	for i := range events {
		if events[i].Title != title {
			continue
		}
		if SameDay(day, events[i].Start) {
			return events[i], true
		}
		if fallback == nil {
			fallback = &events[i]
		}
	}
	if fallback == nil {
		return DisplayEvent{}, false
	}
	return *fallback, true
}

// SetForm replaces the form fields while a form is open.
func (e *Editor) SetForm(f Form) error {
	if e.mode != ModeCreatingNew && e.mode != ModeEditingSingle {
		return fmt.Errorf("set form in %s: %w", e.mode, ErrInvalidTransition)
	}
	e.form = f
	return nil
}

// Submit validates the form and returns the mutation to send. On success the
// editor closes; on a validation error it stays open.
func (e *Editor) Submit() (Mutation, error) {
	if e.mode != ModeCreatingNew && e.mode != ModeEditingSingle {
		return Mutation{}, fmt.Errorf("submit in %s: %w", e.mode, ErrInvalidTransition)
	}
	req := e.form.Request()
	opts := e.opts
	if opts.Now.IsZero() && e.clock != nil {
		opts.Now = e.clock()
	}
	if err := ValidateRequest(req, opts); err != nil {
		return Mutation{}, err
	}
	segments := Split(req)

	var m Mutation
	if e.mode == ModeEditingSingle {
		if e.target == nil || e.target.ID == "" {
			return Mutation{}, ErrNothingSelected
		}
		m = Mutation{Kind: MutationUpdate, ID: e.target.ID, Events: segments[:1]}
	} else {
		m = Mutation{Kind: MutationCreate, Events: segments}
	}
	e.Close()
	return m, nil
}

// Delete returns the delete mutation for the entry being edited.
func (e *Editor) Delete() (Mutation, error) {
	if e.mode != ModeEditingSingle {
		return Mutation{}, fmt.Errorf("delete in %s: %w", e.mode, ErrInvalidTransition)
	}
	if e.target == nil || e.target.ID == "" {
		return Mutation{}, ErrNothingSelected
	}
	m := Mutation{Kind: MutationDelete, ID: e.target.ID}
	e.Close()
	return m, nil
}

func (e *Editor) Close() {
	e.reset()
}

func (e *Editor) edit(ev DisplayEvent, start, end time.Time) {
	target := ev
	e.mode = ModeEditingSingle
	e.target = &target
	e.form = Form{Title: ev.Title, Start: start, End: end, Reason: ev.ReasonText()}
}

func (e *Editor) reset() {
	e.mode = ModeClosed
	e.form = Form{}
	e.target = nil
	e.choices = nil
	e.day = time.Time{}
	e.dayAll = nil
	e.active = nil
}
