package analysis

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/mrlokans/khelo/internal/entities"
)

// Config bounds the simulated inference delay.
type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration

	// DefaultAthleteID is used when a request names no athlete.
	DefaultAthleteID string
}

// DefaultConfig returns the delays the capture flow uses.
func DefaultConfig() Config {
	return Config{
		MinDelay:         2 * time.Second,
		MaxDelay:         4 * time.Second,
		DefaultAthleteID: DefaultAthleteID,
	}
}

// Request identifies the recording to analyze.
type Request struct {
	AthleteID string                   `json:"athleteId"`
	TestID    string                   `json:"testId"`
	TestName  string                   `json:"testName"`
	Metadata  entities.CaptureMetadata `json:"metadata"`
}

// Analyzer stands in for the on-device inference pipeline: it waits a
// bounded, cancellable delay and then returns the deterministic mock score.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.DefaultAthleteID == "" {
		cfg.DefaultAthleteID = DefaultAthleteID
	}
	return &Analyzer{cfg: cfg}
}

// Run waits the simulated inference time and returns the analysis.
// It returns ctx.Err() if the context ends first.
func (a *Analyzer) Run(ctx context.Context, req Request) (entities.AnalysisResult, error) {
	delay := a.delay()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return entities.AnalysisResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return entities.AnalysisResult{}, err
	}

	athleteID := req.AthleteID
	if athleteID == "" && req.Metadata.AthleteID == "" {
		athleteID = a.cfg.DefaultAthleteID
	}

	result := Generate(athleteID, req.TestID, req.TestName, req.Metadata)
	log.Printf("[ANALYSIS] %s/%s: %s variant, confidence %.2f (took %v)",
		athleteID, req.TestID, result.Variant, result.Confidence, delay.Round(time.Millisecond))
	return result, nil
}

// delay jitters only the latency; it never influences the result.
func (a *Analyzer) delay() time.Duration {
	spread := a.cfg.MaxDelay - a.cfg.MinDelay
	if spread <= 0 {
		return a.cfg.MinDelay
	}
	return a.cfg.MinDelay + time.Duration(rand.Int64N(int64(spread)))
}
