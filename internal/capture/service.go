// Package capture is the entry point for a finished recording: it queues the
// capture metadata for upload and, when auto-analyze is on, produces the
// mock performance score.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/entities"
)

// EstimatedBytesPerSecond approximates the encoded size of a recording.
const EstimatedBytesPerSecond = 1 << 20

var ErrMissingTest = errors.New("recording needs a test id")

// Mode selects how auto-analysis runs.
type Mode string

const (
	// ModeSync analyzes before Record returns.
	ModeSync Mode = "sync"
	// ModeAsync hands analysis to the background task queue.
	ModeAsync Mode = "async"
)

type Queue interface {
	Enqueue(ctx context.Context, item entities.NewQueuedItem) (entities.QueuedItem, error)
}

type SettingsReader interface {
	Get(ctx context.Context) (entities.Settings, error)
}

type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (entities.AnalysisResult, error)
}

type AnalysisSaver interface {
	SaveAnalysis(itemID, athleteID, testID, testName string, result entities.AnalysisResult) error
}

// AnalysisScheduler queues an analysis to run later.
type AnalysisScheduler interface {
	ScheduleAnalysis(ctx context.Context, itemID string, req analysis.Request) error
}

type AuditLogger interface {
	LogCapture(itemID, testID, testName string, sizeBytes int64, err error)
	LogAnalysis(itemID string, result entities.AnalysisResult, err error)
}

// RecordingRequest describes a recording that has just been stopped.
type RecordingRequest struct {
	TestID          string    `json:"testId" binding:"required"`
	TestName        string    `json:"testName"`
	AthleteID       string    `json:"athleteId"`
	DurationSeconds int       `json:"duration"`
	FaceMatch       bool      `json:"faceMatch"`
	RecordedAt      time.Time `json:"recordedAt"`
	// SizeBytes overrides the size estimate when the caller knows it.
	SizeBytes int64 `json:"size,omitempty"`
}

// Recording is the outcome of Record.
type Recording struct {
	Item              entities.QueuedItem      `json:"item"`
	Analysis          *entities.AnalysisResult `json:"analysis,omitempty"`
	AnalysisScheduled bool                     `json:"analysis_scheduled"`
	AnalysisError     string                   `json:"analysis_error,omitempty"`
}

type Service struct {
	queue     Queue
	settings  SettingsReader
	analyzer  Analyzer
	saver     AnalysisSaver
	scheduler AnalysisScheduler
	audit     AuditLogger
	mode      Mode
	athleteID string
	now       func() time.Time
}

type Option func(*Service)

func WithAnalysisSaver(saver AnalysisSaver) Option {
	return func(s *Service) { s.saver = saver }
}

// WithScheduler switches auto-analysis to ModeAsync.
func WithScheduler(scheduler AnalysisScheduler) Option {
	return func(s *Service) {
		s.scheduler = scheduler
		s.mode = ModeAsync
	}
}

func WithAuditLogger(audit AuditLogger) Option {
	return func(s *Service) { s.audit = audit }
}

func WithDefaultAthlete(athleteID string) Option {
	return func(s *Service) { s.athleteID = athleteID }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(queue Queue, settings SettingsReader, analyzer Analyzer, opts ...Option) *Service {
	s := &Service{
		queue:     queue,
		settings:  settings,
		analyzer:  analyzer,
		mode:      ModeSync,
		athleteID: analysis.DefaultAthleteID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Mode() Mode {
	return s.mode
}

// Record queues the recording and runs or schedules its analysis. A failed
// analysis does not undo the enqueue; it is reported in the Recording.
func (s *Service) Record(ctx context.Context, req RecordingRequest) (Recording, error) {
	if req.TestID == "" {
		return Recording{}, ErrMissingTest
	}

	now := s.now()
	if req.AthleteID == "" {
		req.AthleteID = s.athleteID
	}
	if req.RecordedAt.IsZero() {
		req.RecordedAt = now
	}

	meta := entities.CaptureMetadata{
		TestID:          req.TestID,
		TestName:        req.TestName,
		AthleteID:       req.AthleteID,
		RecordedAt:      req.RecordedAt.UTC(),
		DurationSeconds: req.DurationSeconds,
		FaceMatch:       req.FaceMatch,
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return Recording{}, fmt.Errorf("encode capture metadata: %w", err)
	}

	itemID := fmt.Sprintf("recording_%s_%d", req.TestID, now.UnixMilli())
	size := req.SizeBytes
	if size <= 0 {
		size = estimateSize(req.DurationSeconds, len(payload))
	}

	item, err := s.queue.Enqueue(ctx, entities.NewQueuedItem{
		ID:        itemID,
		Kind:      entities.ItemKindTest,
		TestID:    req.TestID,
		Payload:   payload,
		Encrypted: false,
		SizeBytes: size,
	})
	if s.audit != nil {
		s.audit.LogCapture(itemID, req.TestID, req.TestName, size, err)
	}
	if err != nil {
		return Recording{}, fmt.Errorf("queue recording: %w", err)
	}
	log.Printf("[CAPTURE] Queued %s (%s, %d bytes)", item.ID, req.TestName, item.SizeBytes)

	recording := Recording{Item: item}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return recording, fmt.Errorf("read settings: %w", err)
	}
	if !settings.AutoAnalyze {
		return recording, nil
	}

	analysisReq := analysis.Request{
		AthleteID: req.AthleteID,
		TestID:    req.TestID,
		TestName:  req.TestName,
		Metadata:  meta,
	}

	if s.mode == ModeAsync {
		if err := s.scheduler.ScheduleAnalysis(ctx, item.ID, analysisReq); err != nil {
			log.Printf("[CAPTURE] Failed to schedule analysis for %s: %v", item.ID, err)
			recording.AnalysisError = err.Error()
			return recording, nil
		}
		recording.AnalysisScheduled = true
		return recording, nil
	}

	result, err := s.Analyze(ctx, item.ID, analysisReq)
	if err != nil {
		recording.AnalysisError = err.Error()
		return recording, nil
	}
	recording.Analysis = &result
	return recording, nil
}

// Analyze runs the analyzer for a queued recording and stores the result.
// The background analyze task calls this too.
func (s *Service) Analyze(ctx context.Context, itemID string, req analysis.Request) (entities.AnalysisResult, error) {
	result, err := s.analyzer.Run(ctx, req)
	if err == nil && s.saver != nil {
		if saveErr := s.saver.SaveAnalysis(itemID, req.AthleteID, req.TestID, req.TestName, result); saveErr != nil {
			err = fmt.Errorf("save analysis: %w", saveErr)
		}
	}
	if s.audit != nil {
		s.audit.LogAnalysis(itemID, result, err)
	}
	if err != nil {
		log.Printf("[CAPTURE] Analysis of %s failed: %v", itemID, err)
		return entities.AnalysisResult{}, err
	}
	return result, nil
}

func estimateSize(durationSeconds, payloadLen int) int64 {
	if durationSeconds <= 0 {
		return int64(payloadLen)
	}
	return int64(durationSeconds)*EstimatedBytesPerSecond + int64(payloadLen)
}
