// Package audit records what the device did with captured work: captures,
// analyses, drain passes, queue edits and settings changes.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/khelo/internal/database/audit"
	"github.com/mrlokans/khelo/internal/entities"
)

const entityQueueItem = "queue_item"

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Flush blocks until every event passed to LogAsync has been written.
func (s *Service) Flush() {
	s.pending.Wait()
}

// LogSync records a drain pass.
func (s *Service) LogSync(action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSync,
		Action:      action,
		Description: description,
		EntityType:  "queue",
		Status:      entities.AuditStatusSuccess,
	}
	markFailed(event, err)
	s.LogAsync(event)
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(action, description string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: description,
		EntityType:  "settings",
		Status:      entities.AuditStatusSuccess,
	})
}

// LogCapture records a recording being queued.
func (s *Service) LogCapture(itemID, testID, testName string, sizeBytes int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCapture,
		Action:      "record",
		Description: fmt.Sprintf("Captured %s (%s)", testName, testID),
		EntityType:  entityQueueItem,
		EntityID:    itemID,
		Status:      entities.AuditStatusSuccess,
	}
	setMetadata(event, map[string]any{
		"test_id":    testID,
		"size_bytes": sizeBytes,
	})
	markFailed(event, err)
	s.LogAsync(event)
}

// LogAnalysis records the mock analysis of a recording.
func (s *Service) LogAnalysis(itemID string, result entities.AnalysisResult, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventAnalysis,
		Action:      "analyze",
		Description: fmt.Sprintf("Analyzed %s as %s", itemID, result.Variant),
		EntityType:  entityQueueItem,
		EntityID:    itemID,
		Status:      entities.AuditStatusSuccess,
	}
	if err == nil {
		setMetadata(event, map[string]any{
			"variant":    result.Variant,
			"confidence": result.Confidence,
			"face_match": result.FaceMatch,
		})
	}
	markFailed(event, err)
	s.LogAsync(event)
}

// LogQueue records a manual queue edit such as enqueue or remove.
func (s *Service) LogQueue(action, itemID string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventQueue,
		Action:      action,
		Description: action + " " + itemID,
		EntityType:  entityQueueItem,
		EntityID:    itemID,
		Status:      entities.AuditStatusSuccess,
	})
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func markFailed(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

func setMetadata(event *entities.AuditEvent, metadata map[string]any) {
	if mdBytes, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(mdBytes)
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
