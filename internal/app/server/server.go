package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"leaveportal/internal/domain/audit"
	"leaveportal/internal/domain/events"
	"leaveportal/internal/platform/config"
	"leaveportal/internal/platform/jobs"
	"leaveportal/internal/platform/metrics"
	audithandler "leaveportal/internal/transport/http/handlers/audit"
	eventshandler "leaveportal/internal/transport/http/handlers/events"
	jobshandler "leaveportal/internal/transport/http/handlers/jobs"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
)

type App struct {
	Config      config.Config
	Events      *events.Service
	Audit       *audit.Service
	Jobs        *jobs.Service
	Metrics     *metrics.Collector
	Idempotency *middleware.IdempotencyStore
	Router      http.Handler
	close       func()
}

// New opens storage for cfg and wires the HTTP router. Close releases the
// storage.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	storage, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStorage(cfg, storage), nil
}

// NewWithStorage wires an App around already opened stores. Close releases
// them.
func NewWithStorage(cfg config.Config, storage Storage) *App {
	collector := metrics.New()
	service := events.NewService(storage.Events, cfg.Location())
	app := &App{
		Config:      cfg,
		Events:      service,
		Audit:       audit.New(storage.Audit),
		Jobs:        jobs.New(service, cfg, collector),
		Metrics:     collector,
		Idempotency: storage.Idempotency,
		close:       storage.close,
	}
	app.Router = app.routes()
	return app
}

func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(a.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Events.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.MutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		eventsHandler := eventshandler.NewHandler(a.Events, a.Idempotency, a.Audit, a.Metrics, cfg.ReportTitle)
		eventsHandler.RegisterRoutes(r)

		jobsHandler := jobshandler.NewHandler(a.Jobs, a.Audit)
		jobsHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(a.Audit)
		auditHandler.RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

func setupLogger(cfg config.Config) {
	level := slog.LevelInfo
	if cfg.Environment == "development" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func Run() error {
	cfg := config.Load()
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Jobs.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("leave portal listening", "addr", cfg.Addr, "driver", cfg.DBDriver, "timezone", cfg.Location().String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
