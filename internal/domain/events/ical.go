package events

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"leaveportal/internal/domain/calendar"
)

const (
	icsProductID  = "-//Leave Portal//Leave Calendar//EN"
	icsUIDSuffix  = "@leaveportal"
	icsDateLayout = "20060102"

	// DefaultMaxOccurrences caps how many instances one RRULE expands to.
	DefaultMaxOccurrences = 366
	// maxRuleScan caps how many RRULE instances are generated, including
	// those skipped before the window starts.
	maxRuleScan = 100000
)

var errMissingStart = errors.New("vevent has no DTSTART")

// EncodeICS writes one VEVENT per entry.
func EncodeICS(events []calendar.DisplayEvent, stamp time.Time) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	for i, ev := range events {
		uid := ev.ID
		if uid == "" {
			uid = fmt.Sprintf("entry-%d", i)
		}
		vevent := cal.AddEvent(uid + icsUIDSuffix)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(ev.Start)
		vevent.SetEndAt(ev.End)
		vevent.SetSummary(ev.Title)
		if ev.Reason != nil {
			vevent.SetDescription(*ev.Reason)
		}
	}
	return []byte(cal.Serialize())
}

type DecodeOptions struct {
	// Location is used for all-day and floating values. Defaults to time.Local.
	Location *time.Location
	// From and To bound RRULE expansion. From defaults to today, To to a
	// year after From.
	From time.Time
	To   time.Time
	// MaxOccurrences caps each RRULE. Defaults to DefaultMaxOccurrences.
	MaxOccurrences int
}

func (o DecodeOptions) withDefaults() DecodeOptions {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.From.IsZero() {
		o.From = calendar.StartOfDay(time.Now().In(o.Location))
	}
	if o.To.IsZero() || o.To.Before(o.From) {
		o.To = o.From.AddDate(1, 0, 0)
	}
	if o.MaxOccurrences <= 0 {
		o.MaxOccurrences = DefaultMaxOccurrences
	}
	return o
}

// DecodeICS reads VEVENTs as leave requests. SUMMARY becomes the title and
// DESCRIPTION the reason. All-day events cover whole days with the exclusive
// DTEND moved back a day. Recurring events expand to one request per
// occurrence inside the options window. Events without DTSTART are skipped.
func DecodeICS(r io.Reader, opts DecodeOptions) ([]calendar.LeaveRequest, error) {
	opts = opts.withDefaults()
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	requests := make([]calendar.LeaveRequest, 0)
	for _, ve := range cal.Events() {
		start, end, allDay, err := eventSpan(ve, opts.Location)
		if err != nil {
			slog.Warn("ics vevent skipped", "err", err, "uid", propertyValue(ve, ical.ComponentPropertyUniqueId))
			continue
		}
		base := calendar.LeaveRequest{
			Title:  strings.TrimSpace(propertyValue(ve, ical.ComponentPropertySummary)),
			Reason: calendar.OptionalString(strings.TrimSpace(propertyValue(ve, ical.ComponentPropertyDescription))),
		}

		rule := propertyValue(ve, ical.ComponentPropertyRrule)
		if rule == "" {
			base.Start, base.End = start, end
			requests = append(requests, base)
			continue
		}
		occurrences, err := expandRule(rule, start, opts)
		if err != nil {
			slog.Warn("ics rrule ignored", "err", err, "rrule", rule)
			base.Start, base.End = start, end
			requests = append(requests, base)
			continue
		}
		for _, occ := range occurrences {
			req := base
			if base.Reason != nil {
				reason := *base.Reason
				req.Reason = &reason
			}
			req.Start, req.End = occurrenceSpan(occ, start, end, allDay)
			requests = append(requests, req)
		}
	}
	return requests, nil
}

func propertyValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func eventSpan(ve *ical.VEvent, loc *time.Location) (time.Time, time.Time, bool, error) {
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || strings.TrimSpace(startProp.Value) == "" {
		return time.Time{}, time.Time{}, false, errMissingStart
	}

	if isDateValue(startProp) {
		start, err := time.ParseInLocation(icsDateLayout, strings.TrimSpace(startProp.Value), loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		last := start
		if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil && len(endProp.Value) >= len(icsDateLayout) {
			if exclusive, err := time.ParseInLocation(icsDateLayout, endProp.Value[:len(icsDateLayout)], loc); err == nil && exclusive.After(start) {
				last = exclusive.AddDate(0, 0, -1)
			}
		}
		return start, calendar.EndOfDay(last), true, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	return start.In(loc), end.In(loc), false, nil
}

func expandRule(raw string, start time.Time, opts DecodeOptions) ([]time.Time, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, err
	}
	r.DTStart(start)
	from := opts.From.In(start.Location())
	to := opts.To.In(start.Location())

	next := r.Iterator()
	var occurrences []time.Time
	for scanned := 0; ; scanned++ {
		occ, ok := next()
		if !ok || occ.After(to) {
			break
		}
		if scanned >= maxRuleScan {
			slog.Warn("ics rrule scan limit reached", "rrule", raw, "scanned", scanned)
			break
		}
		if occ.Before(from) {
			continue
		}
		if len(occurrences) == opts.MaxOccurrences {
			slog.Warn("ics rrule truncated", "rrule", raw, "max", opts.MaxOccurrences)
			break
		}
		occurrences = append(occurrences, occ)
	}
	return occurrences, nil
}

// occurrenceSpan keeps the base event's length. All-day spans are counted in
// calendar days so DST changes do not shift the end.
func occurrenceSpan(occ, baseStart, baseEnd time.Time, allDay bool) (time.Time, time.Time) {
	occ = occ.In(baseStart.Location())
	if allDay {
		days := 0
		for d := calendar.StartOfDay(baseStart); calendar.StartOfDay(baseEnd).After(d); d = d.AddDate(0, 0, 1) {
			days++
		}
		first := calendar.StartOfDay(occ)
		return first, calendar.EndOfDay(first.AddDate(0, 0, days))
	}
	return occ, occ.Add(baseEnd.Sub(baseStart))
}
