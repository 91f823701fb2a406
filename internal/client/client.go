package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leaveportal/internal/domain/calendar"
	"leaveportal/internal/domain/events"
)

// Client talks to the leave API and converts every timestamp it returns to
// Location.
type Client struct {
	BaseURL  string
	Location *time.Location
	http     *http.Client
}

func New(baseURL string, loc *time.Location, timeout time.Duration) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Location: loc,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields []FieldIssue `json:"fields"`
		} `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

func (c *Client) ListEvents(ctx context.Context) ([]calendar.DisplayEvent, error) {
	var out []calendar.DisplayEvent
	if err := c.do(ctx, http.MethodGet, "/events", nil, &out); err != nil {
		return nil, err
	}
	return c.localize(out), nil
}

// ListEventsOn returns the entries overlapping the calendar day of date.
func (c *Client) ListEventsOn(ctx context.Context, date time.Time) ([]calendar.DisplayEvent, error) {
	var out []calendar.DisplayEvent
	q := url.Values{"date": {calendar.DayKey(date.In(c.Location))}}
	if err := c.do(ctx, http.MethodGet, "/events?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return c.localize(out), nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (calendar.DisplayEvent, error) {
	var out calendar.DisplayEvent
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &out); err != nil {
		return calendar.DisplayEvent{}, err
	}
	return c.localizeOne(out), nil
}

// CreateEvents stores a batch of per-day entries in one request.
func (c *Client) CreateEvents(ctx context.Context, batch []calendar.DisplayEvent) ([]calendar.DisplayEvent, error) {
	var out []calendar.DisplayEvent
	if err := c.do(ctx, http.MethodPost, "/events", batch, &out); err != nil {
		return nil, err
	}
	return c.localize(out), nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, ev calendar.DisplayEvent) (calendar.DisplayEvent, error) {
	var out calendar.DisplayEvent
	if err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(id), ev, &out); err != nil {
		return calendar.DisplayEvent{}, err
	}
	return c.localizeOne(out), nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}

// Summaries returns per-title rollups, limited to those active on date when
// it is non-nil.
func (c *Client) Summaries(ctx context.Context, date *time.Time) ([]calendar.TitleSummary, error) {
	path := "/events/summaries"
	if date != nil {
		path += "?" + url.Values{"date": {calendar.DayKey(date.In(c.Location))}}.Encode()
	}
	var out []calendar.TitleSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return c.localizeSummaries(out), nil
}

func (c *Client) Day(ctx context.Context, date time.Time) (events.DayView, error) {
	var out events.DayView
	if err := c.do(ctx, http.MethodGet, "/events/days/"+calendar.DayKey(date.In(c.Location)), nil, &out); err != nil {
		return events.DayView{}, err
	}
	out.Events = c.localize(out.Events)
	out.Active = c.localizeSummaries(out.Active)
	return out, nil
}

func (c *Client) ExportICS(ctx context.Context) ([]byte, error) {
	return c.download(ctx, "/events/calendar.ics")
}

func (c *Client) RosterPDF(ctx context.Context, month time.Time) ([]byte, error) {
	return c.download(ctx, "/events/report.pdf?month="+month.In(c.Location).Format("2006-01"))
}

// Apply sends an editor mutation to the API.
func (c *Client) Apply(ctx context.Context, m calendar.Mutation) ([]calendar.DisplayEvent, error) {
	switch m.Kind {
	case calendar.MutationCreate:
		return c.CreateEvents(ctx, m.Events)
	case calendar.MutationUpdate:
		if len(m.Events) == 0 {
			return nil, fmt.Errorf("update %s: no event to send", m.ID)
		}
		updated, err := c.UpdateEvent(ctx, m.ID, m.Events[0])
		if err != nil {
			return nil, err
		}
		return []calendar.DisplayEvent{updated}, nil
	case calendar.MutationDelete:
		return nil, c.DeleteEvent(ctx, m.ID)
	default:
		return nil, fmt.Errorf("unsupported mutation %s", m.Kind)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: env.RequestID}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Fields = env.Error.Details.Fields
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s %s data: %w", method, path, err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.RequestID = env.RequestID
		}
		return nil, apiErr
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) localize(list []calendar.DisplayEvent) []calendar.DisplayEvent {
	for i := range list {
		list[i] = c.localizeOne(list[i])
	}
	return list
}

func (c *Client) localizeSummaries(list []calendar.TitleSummary) []calendar.TitleSummary {
	for i := range list {
		list[i].Start = list[i].Start.In(c.Location)
		list[i].End = list[i].End.In(c.Location)
		list[i].MinStart = list[i].MinStart.In(c.Location)
		list[i].MaxEnd = list[i].MaxEnd.In(c.Location)
	}
	return list
}

func (c *Client) localizeOne(ev calendar.DisplayEvent) calendar.DisplayEvent {
	ev.Start = ev.Start.In(c.Location)
	ev.End = ev.End.In(c.Location)
	return ev
}
