package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"leaveportal/internal/platform/config"
	"leaveportal/internal/platform/metrics"
)

type fakePurger struct {
	calls   chan int
	removed int64
	err     error
}

func (f *fakePurger) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	if f.calls != nil {
		f.calls <- days
	}
	return f.removed, f.err
}

func TestRunRetentionRecordsRun(t *testing.T) {
	collector := metrics.New()
	purger := &fakePurger{removed: 3}
	svc := New(purger, config.Config{Timezone: "UTC", RetentionDays: 30}, collector)

	result, err := svc.RunRetention(context.Background())
	if err != nil {
		t.Fatalf("run retention: %v", err)
	}
	if result.Removed != 3 || result.RetentionDays != 30 {
		t.Fatalf("unexpected result %+v", result)
	}
	if collector.Snapshot().EventsPurged != 3 {
		t.Fatalf("expected purged counter to be recorded")
	}
	runs := svc.Runs()
	if len(runs) != 1 || runs[0].Status != "completed" || runs[0].Type != JobRetention {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestRunRetentionFailureIsRecorded(t *testing.T) {
	svc := New(&fakePurger{err: errors.New("db down")}, config.Config{Timezone: "UTC", RetentionDays: 30}, nil)

	if _, err := svc.RunRetention(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	runs := svc.Runs()
	if len(runs) != 1 || runs[0].Status != "failed" || runs[0].Error != "db down" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestRunsNewestFirstAndCapped(t *testing.T) {
	svc := New(&fakePurger{}, config.Config{Timezone: "UTC"}, nil)
	for i := 0; i < runHistorySize+5; i++ {
		n := i
		if _, err := svc.RunNow(context.Background(), "test", func(context.Context) (any, error) { return n, nil }); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	runs := svc.Runs()
	if len(runs) != runHistorySize {
		t.Fatalf("expected %d runs, got %d", runHistorySize, len(runs))
	}
	if runs[0].Details != runHistorySize+4 {
		t.Fatalf("expected newest run first, got %v", runs[0].Details)
	}
}

func TestEnqueueRunsOnWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	purger := &fakePurger{calls: make(chan int, 1)}
	svc := New(purger, config.Config{Timezone: "UTC", RetentionDays: 7}, nil)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	svc.Enqueue(JobRetention, svc.retention)
	select {
	case days := <-purger.calls:
		if days != 7 {
			t.Fatalf("expected 7 retention days, got %d", days)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("queued job did not run")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := New(&fakePurger{}, config.Config{Timezone: "UTC", RetentionDays: 7, RetentionSchedule: "not a schedule"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err == nil {
		t.Fatalf("expected schedule error")
	}
}
