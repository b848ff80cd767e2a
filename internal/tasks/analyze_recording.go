package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/entities"
)

// RecordingAnalyzer analyzes a queued recording and stores the result.
type RecordingAnalyzer interface {
	Analyze(ctx context.Context, itemID string, req analysis.Request) (entities.AnalysisResult, error)
}

// AnalyzeRecordingTask produces the mock score for one recording.
type AnalyzeRecordingTask struct {
	ItemID  string           `json:"item_id"`
	Request analysis.Request `json:"request"`
}

// Config returns the queue configuration for analysis tasks.
func (t AnalyzeRecordingTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "analyze_recording",
		MaxAttempts: 3,
		Backoff:     10 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// AnalyzeRecordingProcessor creates a processor function for AnalyzeRecordingTask.
func AnalyzeRecordingProcessor(analyzer RecordingAnalyzer) backlite.QueueProcessor[AnalyzeRecordingTask] {
	return func(ctx context.Context, task AnalyzeRecordingTask) error {
		if analyzer == nil {
			return fmt.Errorf("analyzer not configured")
		}

		result, err := analyzer.Analyze(ctx, task.ItemID, task.Request)
		if err != nil {
			return fmt.Errorf("analyze recording %s: %w", task.ItemID, err)
		}

		log.Printf("[TASK] Analyzed %s: %s, confidence %.2f", task.ItemID, result.Variant, result.Confidence)
		return nil
	}
}

// NewAnalyzeRecordingQueue creates a backlite queue for analysis tasks.
func NewAnalyzeRecordingQueue(analyzer RecordingAnalyzer) backlite.Queue {
	return backlite.NewQueue(AnalyzeRecordingProcessor(analyzer))
}
