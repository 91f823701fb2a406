package jobshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leaveportal/internal/domain/audit"
	"leaveportal/internal/platform/jobs"
	"leaveportal/internal/requestctx"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
)

type Handler struct {
	Jobs  *jobs.Service
	Audit *audit.Service
}

// NewHandler wires the job endpoints. A nil auditSvc skips recording manual
// runs.
func NewHandler(jobsSvc *jobs.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Jobs: jobsSvc, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/runs", h.handleListRuns)
		r.Post("/retention/run", h.handleRunRetention)
	})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Jobs.Runs(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunRetention(w http.ResponseWriter, r *http.Request) {
	if h.Jobs.Cfg.RetentionDays <= 0 {
		api.Fail(w, http.StatusConflict, "retention_disabled", "retention is disabled", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Jobs.RunRetention(r.Context())
	if err != nil {
		requestctx.Logger(r.Context()).Warn("manual retention failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "retention_failed", "failed to run retention", middleware.GetRequestID(r.Context()))
		return
	}
	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), audit.ActionRetentionPurge, "", middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, result); err != nil {
			slog.Warn("audit retention.purge failed", "err", err)
		}
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}
