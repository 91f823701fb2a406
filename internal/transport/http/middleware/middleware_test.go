package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leaveportal/internal/platform/metrics"
)

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Fatal("expected request id in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "caller-id" {
		t.Fatalf("expected caller request id to be kept, got %s", rec.Header().Get("X-Request-ID"))
	}
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"internal_error"`) {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestCORSAllowsListedOrigins(t *testing.T) {
	handler := CORS([]string{"http://calendar.test/"})(noContent())

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/events", nil)
	preflight.Header.Set("Origin", "http://calendar.test")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://calendar.test" {
		t.Fatalf("expected allow origin header")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete) {
		t.Fatalf("expected DELETE in allowed methods")
	}

	denied := httptest.NewRequest(http.MethodOptions, "/api/v1/events", nil)
	denied.Header.Set("Origin", "http://evil.test")
	denied.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, denied)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected unknown origin preflight to be refused, got %d", rec.Code)
	}

	simple := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	simple.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, simple)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected no allow origin header for unknown origin")
	}
}

func TestMetricsRecordsStatus(t *testing.T) {
	collector := metrics.New()
	handler := Metrics(collector)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	snap := collector.Snapshot()
	if snap.RequestsTotal != 1 || snap.ErrorsTotal != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestBodyLimitAndSecureHeaders(t *testing.T) {
	reached := false
	handler := SecureHeaders(true)(BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		buf := make([]byte, 32)
		if _, err := io.ReadFull(r.Body, buf); err == nil {
			t.Fatalf("expected body read to fail past the limit")
		}
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge || reached {
		t.Fatalf("expected declared oversized body to be rejected early, got %d", rec.Code)
	}
	if rec.Header().Get("Strict-Transport-Security") == "" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected secure headers, got %v", rec.Header())
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected api responses to be uncached")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !reached || rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected streamed body to hit the reader limit, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "" {
		t.Fatalf("expected static responses to keep default caching")
	}
}
