package jobshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"leaveportal/internal/platform/config"
	"leaveportal/internal/platform/jobs"
	"leaveportal/internal/platform/metrics"
)

type stubPurger struct {
	removed int64
	err     error
	days    int
}

func (p *stubPurger) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	p.days = days
	return p.removed, p.err
}

func newRouter(purger jobs.Purger, days int) http.Handler {
	svc := jobs.New(purger, config.Config{RetentionDays: days}, metrics.New())
	router := chi.NewRouter()
	NewHandler(svc, nil).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRunRetentionRecordsRun(t *testing.T) {
	purger := &stubPurger{removed: 7}
	router := newRouter(purger, 30)

	rec := serve(router, http.MethodPost, "/jobs/retention/run")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data jobs.RetentionResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Removed != 7 || resp.Data.RetentionDays != 30 || purger.days != 30 {
		t.Fatalf("unexpected result %+v (purger saw %d)", resp.Data, purger.days)
	}

	rec = serve(router, http.MethodGet, "/jobs/runs")
	var runs struct {
		Data []jobs.Run `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs.Data) != 1 || runs.Data[0].Type != jobs.JobRetention || runs.Data[0].Status != "completed" {
		t.Fatalf("unexpected runs %+v", runs.Data)
	}
}

func TestRunRetentionDisabled(t *testing.T) {
	rec := serve(newRouter(&stubPurger{}, 0), http.MethodPost, "/jobs/retention/run")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRunRetentionFailure(t *testing.T) {
	router := newRouter(&stubPurger{err: errors.New("disk full")}, 10)
	if rec := serve(router, http.MethodPost, "/jobs/retention/run"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	rec := serve(router, http.MethodGet, "/jobs/runs")
	var runs struct {
		Data []jobs.Run `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs.Data) != 1 || runs.Data[0].Status != "failed" || runs.Data[0].Error != "disk full" {
		t.Fatalf("expected failed run, got %+v", runs.Data)
	}
}
