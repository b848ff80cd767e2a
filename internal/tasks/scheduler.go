package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/khelo/internal/analysis"
)

// Scheduler enqueues the application's background tasks.
type Scheduler struct {
	client *Client
}

func NewScheduler(client *Client) *Scheduler {
	return &Scheduler{client: client}
}

// ScheduleAnalysis implements capture.AnalysisScheduler.
func (s *Scheduler) ScheduleAnalysis(ctx context.Context, itemID string, req analysis.Request) error {
	_, err := s.client.Add(AnalyzeRecordingTask{ItemID: itemID, Request: req}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("enqueue analysis of %s: %w", itemID, err)
	}
	return nil
}

// ScheduleDrain enqueues a drain pass and returns its task id.
func (s *Scheduler) ScheduleDrain(ctx context.Context, reason string) (string, error) {
	ids, err := s.client.Add(DrainQueueTask{Reason: reason}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue drain: %w", err)
	}
	return ids[0], nil
}

// TaskStatus reports the state of a previously scheduled task.
func (s *Scheduler) TaskStatus(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return s.client.Status(ctx, taskID)
}

// DrainTrigger adapts ScheduleDrain to the connectivity monitor's trigger.
// The session context is not stored in the task; the drain processor picks
// up the monitor's session itself.
func (s *Scheduler) DrainTrigger(reason string) func(context.Context) {
	return func(context.Context) {
		if _, err := s.ScheduleDrain(context.Background(), reason); err != nil {
			log.Printf("[TASK ERROR] %v", err)
		}
	}
}

// ScheduleAuditPrune enqueues a sweep of the audit log using the
// configured retention (AUDIT_RETENTION_DAYS).
func (s *Scheduler) ScheduleAuditPrune(ctx context.Context) error {
	_, err := s.client.Add(PruneAuditTask{RetentionDays: s.client.config.AuditRetentionDays}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("enqueue audit prune: %w", err)
	}
	return nil
}
