package calendar

import "time"

// LeaveRequest is a leave span as submitted by the user, before it is split
// into per-day entries.
type LeaveRequest struct {
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason *string   `json:"reason,omitempty"`
}

// DisplayEvent is one calendar-day-bounded leave entry as stored and rendered.
// ID is empty until the entry has been persisted.
type DisplayEvent struct {
	ID     string    `json:"id,omitempty"`
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason *string   `json:"reason,omitempty"`
}

// TitleSummary aggregates every DisplayEvent sharing a title. Start, End and
// Reason come from the first event seen for the title; MinStart and MaxEnd
// span all of them.
type TitleSummary struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	MinStart time.Time `json:"minStart"`
	MaxEnd   time.Time `json:"maxEnd"`
	Reason   *string   `json:"reason,omitempty"`
}

// DayBucket groups the events whose start falls on Day.
type DayBucket struct {
	Day    time.Time      `json:"day"`
	Events []DisplayEvent `json:"events"`
}

func (e DisplayEvent) ReasonText() string {
	if e.Reason == nil {
		return ""
	}
	return *e.Reason
}

func (s TitleSummary) ReasonText() string {
	if s.Reason == nil {
		return ""
	}
	return *s.Reason
}

// OptionalString returns nil for blank values.
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
