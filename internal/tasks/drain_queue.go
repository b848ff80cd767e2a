package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/khelo/internal/syncengine"
)

// Drainer runs one pass over the offline queue.
type Drainer interface {
	Drain(ctx context.Context) (syncengine.Summary, error)
}

// DrainQueueTask runs a drain pass in the background.
type DrainQueueTask struct {
	Reason string `json:"reason"`
}

// Config returns the queue configuration for drain tasks. A pass is never
// retried by the task queue: failed items simply wait for the next trigger.
func (t DrainQueueTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "drain_queue",
		MaxAttempts: 1,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DrainQueueProcessor creates a processor function for DrainQueueTask.
// When session is set, the pass also stops once the returned context ends,
// which ties background drains to the current online period.
func DrainQueueProcessor(drainer Drainer, session func() context.Context) backlite.QueueProcessor[DrainQueueTask] {
	return func(ctx context.Context, task DrainQueueTask) error {
		if drainer == nil {
			return fmt.Errorf("drainer not configured")
		}

		if session != nil {
			var cancel context.CancelFunc
			ctx, cancel = context.WithCancel(ctx)
			defer cancel()
			stop := context.AfterFunc(session(), cancel)
			defer stop()
		}

		summary, err := drainer.Drain(ctx)
		if err != nil {
			return fmt.Errorf("drain queue: %w", err)
		}

		switch {
		case summary.Skipped:
			log.Printf("[TASK] Drain (%s) skipped, another pass is running", task.Reason)
		case summary.Interrupted:
			log.Printf("[TASK] Drain (%s) interrupted after %d items, %d remaining",
				task.Reason, summary.Succeeded+summary.Failed, summary.Remaining)
		default:
			log.Printf("[TASK] Drain (%s): %d succeeded, %d failed, %d remaining",
				task.Reason, summary.Succeeded, summary.Failed, summary.Remaining)
		}
		return nil
	}
}

// NewDrainQueueQueue creates a backlite queue for drain tasks.
func NewDrainQueueQueue(drainer Drainer, session func() context.Context) backlite.Queue {
	return backlite.NewQueue(DrainQueueProcessor(drainer, session))
}
