package syncengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrStepTimeout marks an upload or encryption step that exceeded its bound.
var ErrStepTimeout = errors.New("step timed out")

// Stage names the step an item failed in.
type Stage string

const (
	StageUpload  Stage = "upload"
	StageEncrypt Stage = "encrypt"
)

// ItemError is a per-item failure. The item stays queued.
type ItemError struct {
	ItemID string
	Stage  Stage
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func (e ItemError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		ItemID string `json:"id"`
		Stage  Stage  `json:"stage"`
		Error  string `json:"error"`
	}{e.ItemID, e.Stage, msg})
}

// Summary describes one drain pass.
type Summary struct {
	// Total is the size of the snapshot the pass started from.
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Dropped counts snapshot items removed or replaced by someone else
	// before or during their steps.
	Dropped   int `json:"dropped"`
	Remaining int `json:"remaining"`

	Interrupted bool `json:"interrupted"`
	Skipped     bool `json:"skipped"`

	Failures  []ItemError   `json:"failures,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

func (s *Summary) fail(id string, stage Stage, err error) {
	s.Failed++
	s.Failures = append(s.Failures, ItemError{ItemID: id, Stage: stage, Err: err})
}

func (s *Summary) processed() int {
	return s.Succeeded + s.Failed + s.Dropped
}
