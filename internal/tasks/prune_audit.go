package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// AuditPruner deletes audit events older than a retention window.
type AuditPruner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// PruneAuditTask trims the audit log to the configured retention. One is
// scheduled each time the server starts.
type PruneAuditTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t PruneAuditTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_audit_log",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// retentionWindow falls back to the default retention for tasks stored
// without one.
func retentionWindow(days int) time.Duration {
	if days <= 0 {
		days = DefaultConfig().AuditRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// PruneAuditProcessor deletes events that aged out of the task's window.
func PruneAuditProcessor(pruner AuditPruner) backlite.QueueProcessor[PruneAuditTask] {
	return func(ctx context.Context, task PruneAuditTask) error {
		if pruner == nil {
			return errors.New("audit pruner not configured")
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		window := retentionWindow(task.RetentionDays)
		deleted, err := pruner.DeleteOldEvents(window)
		if err != nil {
			return fmt.Errorf("prune audit log: %w", err)
		}

		cutoff := time.Now().Add(-window).Format(time.DateOnly)
		if deleted == 0 {
			log.Printf("[TASK] Audit log has nothing older than %s", cutoff)
		} else {
			log.Printf("[TASK] Pruned %d audit events recorded before %s", deleted, cutoff)
		}
		return nil
	}
}

// NewPruneAuditQueue creates a backlite queue for audit pruning.
func NewPruneAuditQueue(pruner AuditPruner) backlite.Queue {
	return backlite.NewQueue(PruneAuditProcessor(pruner))
}
