package eventshandler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leaveportal/internal/domain/audit"
	"leaveportal/internal/domain/calendar"
	"leaveportal/internal/domain/events"
	"leaveportal/internal/platform/metrics"
	"leaveportal/internal/requestctx"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
	"leaveportal/internal/transport/http/shared"
)

const (
	maxTitleLength   = 200
	maxReasonLength  = 2000
	maxListPageLimit = 1000

	idempotencyEndpointCreate = "events.create"
)

type Handler struct {
	Service     *events.Service
	Idempotency *middleware.IdempotencyStore
	Audit       *audit.Service
	Metrics     *metrics.Collector
	ReportTitle string
}

func NewHandler(service *events.Service, idempotency *middleware.IdempotencyStore, auditSvc *audit.Service, collector *metrics.Collector, reportTitle string) *Handler {
	return &Handler{Service: service, Idempotency: idempotency, Audit: auditSvc, Metrics: collector, ReportTitle: reportTitle}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/summaries", h.handleSummaries)
		r.Get("/days/{date}", h.handleDay)
		r.Get("/calendar.ics", h.handleExportICS)
		r.Get("/calendar.csv", h.handleExportCSV)
		r.Get("/report.pdf", h.handleRosterPDF)
		r.Get("/{eventID}", h.handleGet)
		r.Put("/{eventID}", h.handleUpdate)
		r.Delete("/{eventID}", h.handleDelete)
	})
}

type eventPayload struct {
	Title  string  `json:"title"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Reason *string `json:"reason"`
}

func (h *Handler) toEvent(v *shared.Validator, prefix string, p eventPayload) calendar.DisplayEvent {
	loc := h.Service.Location
	v.Required(prefix+"title", p.Title, "is required")
	v.MaxLength(prefix+"title", strings.TrimSpace(p.Title), maxTitleLength)
	start, startOK := v.Date(prefix+"start", p.Start, loc)
	end, endOK := v.Date(prefix+"end", p.End, loc)
	if startOK && endOK {
		v.DateOrder(prefix+"start", start, prefix+"end", end)
	}
	if p.Reason != nil {
		v.MaxLength(prefix+"reason", strings.TrimSpace(*p.Reason), maxReasonLength)
	}
	return calendar.DisplayEvent{Title: p.Title, Start: start, End: end, Reason: p.Reason}
}

// decodeEvents accepts either a JSON array of events or a single event.
func decodeEvents(raw []byte) ([]eventPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] == '[' {
		var payloads []eventPayload
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			return nil, err
		}
		return payloads, nil
	}
	var payload eventPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, err
	}
	return []eventPayload{payload}, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, events.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave event not found", reqID)
	case errors.Is(err, events.ErrInvalidEvent):
		api.Fail(w, http.StatusBadRequest, "invalid_event", err.Error(), reqID)
	default:
		requestctx.Logger(r.Context()).Warn(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}

func (h *Handler) record(r *http.Request, action, id string, before, after any) {
	if err := h.Audit.Record(r.Context(), action, id, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) parseDateParam(w http.ResponseWriter, r *http.Request, field, raw string) (time.Time, bool) {
	v := shared.NewValidator()
	date, _ := v.Date(field, raw, h.Service.Location)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return time.Time{}, false
	}
	return date, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		list []calendar.DisplayEvent
		err  error
	)
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, ok := h.parseDateParam(w, r, "date", raw)
		if !ok {
			return
		}
		list, err = h.Service.ListForDate(r.Context(), date)
	} else {
		list, err = h.Service.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err, "events_list_failed", "failed to list leave events")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(list)))
	page := shared.Page(list, shared.ParsePagination(r, 0, maxListPageLimit))
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Service.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.fail(w, r, err, "event_get_failed", "failed to load leave event")
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request payload too large", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	payloads, err := decodeEvents(raw)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get(middleware.IdempotencyHeader))
	requestHash := middleware.RequestHash(raw)
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), idempotencyEndpointCreate, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", reqID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Created(w, stored, reqID)
			return
		}
	}

	v := shared.NewValidator()
	if len(payloads) == 0 {
		v.Add("events", "at least one event is required")
	}
	if len(payloads) > events.MaxBatchSize {
		v.Add("events", fmt.Sprintf("at most %d events per request", events.MaxBatchSize))
	}
	batch := make([]calendar.DisplayEvent, 0, len(payloads))
	for i, p := range payloads {
		prefix := ""
		if len(payloads) > 1 {
			prefix = fmt.Sprintf("events[%d].", i)
		}
		batch = append(batch, h.toEvent(v, prefix, p))
	}
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.Create(r.Context(), batch)
	if err != nil {
		h.fail(w, r, err, "events_create_failed", "failed to create leave events")
		return
	}
	h.Metrics.EventsCreated(len(created))
	for _, ev := range created {
		h.record(r, audit.ActionEventCreate, ev.ID, nil, ev)
	}

	if idempotencyKey != "" {
		payload, err := json.Marshal(created)
		if err != nil {
			slog.Warn("create response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), idempotencyEndpointCreate, idempotencyKey, requestHash, payload); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	ev := h.toEvent(v, "", payload)
	if v.Reject(w, reqID) {
		return
	}

	id := chi.URLParam(r, "eventID")
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "event_update_failed", "failed to update leave event")
		return
	}
	updated, err := h.Service.Update(r.Context(), id, ev)
	if err != nil {
		h.fail(w, r, err, "event_update_failed", "failed to update leave event")
		return
	}
	h.Metrics.EventUpdated()
	h.record(r, audit.ActionEventUpdate, id, before, updated)
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventID")
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "event_delete_failed", "failed to delete leave event")
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "event_delete_failed", "failed to delete leave event")
		return
	}
	h.Metrics.EventDeleted()
	h.record(r, audit.ActionEventDelete, id, before, nil)
	api.Success(w, map[string]string{"id": id, "status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummaries(w http.ResponseWriter, r *http.Request) {
	var on *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, ok := h.parseDateParam(w, r, "date", raw)
		if !ok {
			return
		}
		on = &date
	}
	summaries, err := h.Service.Summaries(r.Context(), on)
	if err != nil {
		h.fail(w, r, err, "summaries_failed", "failed to summarise leave events")
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDay(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parseDateParam(w, r, "date", chi.URLParam(r, "date"))
	if !ok {
		return
	}
	view, err := h.Service.Day(r.Context(), date)
	if err != nil {
		h.fail(w, r, err, "day_failed", "failed to load leave day")
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportICS(w http.ResponseWriter, r *http.Request) {
	body, err := h.Service.ExportICS(r.Context())
	if err != nil {
		h.fail(w, r, err, "calendar_failed", "failed to export leave calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=leave-calendar.ics")
	if _, err := w.Write(body); err != nil {
		slog.Warn("calendar export write failed", "err", err)
	}
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "calendar_failed", "failed to export leave calendar")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=leave-calendar.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "title", "start", "end", "reason"}); err != nil {
		slog.Warn("calendar export csv header write failed", "err", err)
	}
	for _, ev := range list {
		if err := writer.Write([]string{ev.ID, ev.Title, ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339), ev.ReasonText()}); err != nil {
			slog.Warn("calendar export csv row write failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("calendar export csv flush failed", "err", err)
	}
}

func (h *Handler) handleRosterPDF(w http.ResponseWriter, r *http.Request) {
	month := h.Service.Now().In(h.Service.Location)
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := shared.ParseMonth(raw, h.Service.Location)
		if err != nil {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "month", Reason: "must be in YYYY-MM format"}})
			return
		}
		month = parsed
	}

	body, err := h.Service.RosterPDF(r.Context(), month, h.ReportTitle)
	if err != nil {
		h.fail(w, r, err, "report_failed", "failed to render leave roster")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=leave-roster-%s.pdf", month.Format("2006-01")))
	if _, err := w.Write(body); err != nil {
		slog.Warn("roster pdf write failed", "err", err)
	}
}
