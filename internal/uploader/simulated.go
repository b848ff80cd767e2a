// Package uploader provides the stand-in for the remote upload endpoint.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mrlokans/khelo/internal/entities"
)

// ErrRejected is returned when the simulated remote refuses an item.
var ErrRejected = errors.New("upload rejected by remote")

type Config struct {
	MinLatency time.Duration
	MaxLatency time.Duration
	// FailureRate is the probability in [0,1] that an upload fails.
	FailureRate float64
}

func DefaultConfig() Config {
	return Config{
		MinLatency: time.Second,
		MaxLatency: 3 * time.Second,
	}
}

// Simulated waits a random latency and then reports success, unless the
// failure draw hits or the item id was marked to fail.
type Simulated struct {
	cfg Config

	mu       sync.Mutex
	failIDs  map[string]bool
	attempts map[string]int
	uploaded map[string]int
}

func NewSimulated(cfg Config) *Simulated {
	if cfg.MaxLatency < cfg.MinLatency {
		cfg.MaxLatency = cfg.MinLatency
	}
	return &Simulated{
		cfg:      cfg,
		failIDs:  make(map[string]bool),
		attempts: make(map[string]int),
		uploaded: make(map[string]int),
	}
}

// FailIDs makes every upload of the given ids fail until cleared.
func (s *Simulated) FailIDs(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.failIDs[id] = true
	}
}

// ClearFailures removes all ids set by FailIDs.
func (s *Simulated) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failIDs = make(map[string]bool)
}

// Upload implements syncengine.Uploader.
func (s *Simulated) Upload(ctx context.Context, item entities.QueuedItem) error {
	s.mu.Lock()
	s.attempts[item.ID]++
	forced := s.failIDs[item.ID]
	s.mu.Unlock()

	if latency := s.latency(); latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if forced || (s.cfg.FailureRate > 0 && rand.Float64() < s.cfg.FailureRate) {
		return fmt.Errorf("item %s: %w", item.ID, ErrRejected)
	}

	s.mu.Lock()
	s.uploaded[item.ID]++
	s.mu.Unlock()
	log.Printf("[UPLOAD] Uploaded %s item %s (%d bytes)", item.Kind, item.ID, item.SizeBytes)
	return nil
}

// Attempts returns how many times Upload was called for id.
func (s *Simulated) Attempts(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[id]
}

// Uploaded returns how many times id was uploaded successfully.
func (s *Simulated) Uploaded(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded[id]
}

// TotalAttempts returns the number of Upload calls across all items.
func (s *Simulated) TotalAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.attempts {
		total += n
	}
	return total
}

func (s *Simulated) latency() time.Duration {
	spread := s.cfg.MaxLatency - s.cfg.MinLatency
	if spread <= 0 {
		return s.cfg.MinLatency
	}
	return s.cfg.MinLatency + time.Duration(rand.Int64N(int64(spread)))
}
