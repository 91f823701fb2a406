package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"leaveportal/internal/platform/config"
	"leaveportal/internal/platform/metrics"
)

const (
	JobRetention = "event_retention"

	runHistorySize = 50
)

// Purger removes leave entries that ended more than days ago.
type Purger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

type Run struct {
	ID          string    `json:"id"`
	Type        string    `json:"jobType"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Details     any       `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
}

type RetentionResult struct {
	RetentionDays int   `json:"retentionDays"`
	Removed       int64 `json:"removed"`
}

type Service struct {
	Purger  Purger
	Cfg     config.Config
	Metrics *metrics.Collector
	queue   chan job
	cron    *cron.Cron

	mu   sync.Mutex
	runs []Run
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(purger Purger, cfg config.Config, collector *metrics.Collector) *Service {
	return &Service{
		Purger:  purger,
		Cfg:     cfg,
		Metrics: collector,
		queue:   make(chan job, 16),
		cron:    cron.New(cron.WithLocation(cfg.Location())),
	}
}

// Start runs the worker and the cron scheduler until ctx is cancelled.
// Retention is only scheduled when both a schedule and a positive retention
// period are configured.
func (s *Service) Start(ctx context.Context) error {
	go s.worker(ctx)
	if s.Cfg.RetentionSchedule != "" && s.Cfg.RetentionDays > 0 {
		if _, err := s.cron.AddFunc(s.Cfg.RetentionSchedule, func() {
			s.Enqueue(JobRetention, s.retention)
		}); err != nil {
			return fmt.Errorf("scheduling retention: %w", err)
		}
		slog.Info("retention scheduled", "schedule", s.Cfg.RetentionSchedule, "retentionDays", s.Cfg.RetentionDays)
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// RunRetention purges old entries synchronously, regardless of the schedule.
func (s *Service) RunRetention(ctx context.Context) (RetentionResult, error) {
	details, err := s.RunNow(ctx, JobRetention, s.retention)
	result, _ := details.(RetentionResult)
	return result, err
}

func (s *Service) retention(ctx context.Context) (any, error) {
	removed, err := s.Purger.PurgeOlderThan(ctx, s.Cfg.RetentionDays)
	if err != nil {
		return RetentionResult{RetentionDays: s.Cfg.RetentionDays}, err
	}
	s.Metrics.EventsPurged(removed)
	return RetentionResult{RetentionDays: s.Cfg.RetentionDays, Removed: removed}, nil
}

// Runs returns recent job runs, newest first.
func (s *Service) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, len(s.runs))
	for i, run := range s.runs {
		out[len(s.runs)-1-i] = run
	}
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{ID: uuid.NewString(), Type: j.Type, Status: "running", StartedAt: time.Now()}

	details, err := j.Run(ctx)
	run.CompletedAt = time.Now()
	run.Details = details
	run.Status = "completed"
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	slog.Info("job finished",
		"jobType", run.Type,
		"runId", run.ID,
		"status", run.Status,
		"durationMs", run.CompletedAt.Sub(run.StartedAt).Milliseconds(),
	)

	s.mu.Lock()
	s.runs = append(s.runs, run)
	if len(s.runs) > runHistorySize {
		s.runs = s.runs[len(s.runs)-runHistorySize:]
	}
	s.mu.Unlock()
	return details, err
}
