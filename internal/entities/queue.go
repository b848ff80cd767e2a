package entities

import (
	"bytes"
	"encoding/json"
	"time"
)

type ItemKind string

const (
	ItemKindTest     ItemKind = "test"
	ItemKindAnalysis ItemKind = "analysis"
)

// Valid reports whether k is one of the known queue item kinds.
func (k ItemKind) Valid() bool {
	return k == ItemKindTest || k == ItemKindAnalysis
}

// QueuedItem is a unit of captured work waiting to be uploaded.
// Items are immutable once stored; replace them by remove + enqueue.
type QueuedItem struct {
	ID         string          `json:"id"`
	Kind       ItemKind        `json:"type"`
	TestID     string          `json:"testId"`
	Payload    json.RawMessage `json:"data,omitempty"`
	EnqueuedAt time.Time       `json:"timestamp"`
	Encrypted  bool            `json:"encrypted"`
	SizeBytes  int64           `json:"size"`
}

// SameAs reports whether o is this exact stored item rather than a
// replacement enqueued later under the same id.
func (q QueuedItem) SameAs(o QueuedItem) bool {
	return q.ID == o.ID &&
		q.EnqueuedAt.Equal(o.EnqueuedAt) &&
		q.Kind == o.Kind &&
		q.TestID == o.TestID &&
		q.Encrypted == o.Encrypted &&
		q.SizeBytes == o.SizeBytes &&
		bytes.Equal(q.Payload, o.Payload)
}

// NewQueuedItem is what a caller hands to the queue: everything except the
// enqueue timestamp, which the store assigns.
type NewQueuedItem struct {
	ID        string          `json:"id"`
	Kind      ItemKind        `json:"type" binding:"required"`
	TestID    string          `json:"testId"`
	Payload   json.RawMessage `json:"data,omitempty"`
	Encrypted bool            `json:"encrypted"`
	SizeBytes int64           `json:"size"`
}

// CaptureMetadata describes a recording without carrying the media itself.
// It is the payload of test items produced by the capture flow.
type CaptureMetadata struct {
	TestID          string    `json:"testId,omitempty"`
	TestName        string    `json:"testName,omitempty"`
	AthleteID       string    `json:"athleteId,omitempty"`
	RecordedAt      time.Time `json:"recordedAt,omitempty"`
	DurationSeconds int       `json:"duration,omitempty"`
	FaceMatch       bool      `json:"faceMatch"`
}
