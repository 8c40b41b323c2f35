package cron

import (
	"context"
	"log/slog"
	"time"
)

// EventPruner is the subset of the audit store needed by the retention job.
// Defined here to avoid a dependency on the audit package.
type EventPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AuditPruneJob removes audit events older than the retention window.
type AuditPruneJob struct {
	Store        EventPruner
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 */6 * * *"
}

// Compile-time interface check.
var _ Job = (*AuditPruneJob)(nil)

// Name implements Job.
func (j *AuditPruneJob) Name() string {
	return "audit_prune"
}

// Schedule implements Job.
func (j *AuditPruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 */6 * * *"
}

// Run prunes events older than the retention window.
func (j *AuditPruneJob) Run(ctx context.Context) error {
	pruned, err := j.Store.Prune(ctx, j.Retention)
	if err != nil {
		return err
	}
	if pruned > 0 {
		j.Logger.Info("cron: pruned audit events", "count", pruned)
	}
	return nil
}
