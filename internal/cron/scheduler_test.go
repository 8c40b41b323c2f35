package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// simpleJob is a minimal Job for scheduler tests.
type simpleJob struct {
	name     string
	schedule string
	runFunc  func(ctx context.Context) error
	mu       sync.Mutex
	calls    int
}

func (j *simpleJob) Name() string     { return j.name }
func (j *simpleJob) Schedule() string { return j.schedule }
func (j *simpleJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	if j.runFunc != nil {
		return j.runFunc(ctx)
	}
	return nil
}

func TestScheduler_RegisterJob_DuplicateName(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := s.RegisterJob(&simpleJob{name: "prune", schedule: "* * * * *"}); err != nil {
		t.Fatalf("first RegisterJob: %v", err)
	}
	if err := s.RegisterJob(&simpleJob{name: "prune", schedule: "* * * * *"}); err == nil {
		t.Error("duplicate RegisterJob succeeded, want error")
	}
}

func TestScheduler_Start_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.RegisterJob(&simpleJob{name: "bad", schedule: "not a schedule"}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("Start succeeded with invalid schedule, want error")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.RegisterJob(&simpleJob{name: "prune", schedule: "* * * * *"}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

// fakePruner implements EventPruner.
type fakePruner struct {
	pruned int64
	err    error
	gotAge time.Duration
}

func (f *fakePruner) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	f.gotAge = olderThan
	return f.pruned, f.err
}

func TestAuditPruneJob_Run(t *testing.T) {
	t.Parallel()

	pruner := &fakePruner{pruned: 3}
	job := &AuditPruneJob{
		Store:     pruner,
		Retention: 30 * 24 * time.Hour,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pruner.gotAge != 30*24*time.Hour {
		t.Errorf("retention passed = %v", pruner.gotAge)
	}
}

func TestAuditPruneJob_RunError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("database locked")
	job := &AuditPruneJob{
		Store:     &fakePruner{err: wantErr},
		Retention: time.Hour,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := job.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Run error = %v, want %v", err, wantErr)
	}
}

func TestAuditPruneJob_DefaultSchedule(t *testing.T) {
	t.Parallel()

	job := &AuditPruneJob{}
	if got := job.Schedule(); got != "0 */6 * * *" {
		t.Errorf("Schedule() = %q", got)
	}
	job.ScheduleExpr = "30 3 * * *"
	if got := job.Schedule(); got != "30 3 * * *" {
		t.Errorf("Schedule() = %q", got)
	}
}
