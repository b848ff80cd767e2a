// Package sync provides database operations for drain progress tracking.
//
// This package implements the ProgressReporter interface used by the sync engine.
//
// # Interface Implementation
//
//	var _ syncengine.ProgressReporter = (*Repository)(nil)
//
// # Usage
//
//	repo := sync.NewRepository(db)
//	err := repo.StartSync(12)
package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/khelo/internal/entities"
)

// staleAfter is how long a running record may go without updates before it
// is treated as abandoned by a crashed process.
const staleAfter = 10 * time.Minute

// Repository handles all sync progress database operations.
type Repository struct {
	db       *gorm.DB
	syncType entities.SyncType
	now      func() time.Time
}

// NewRepository creates a sync repository for the offline queue.
func NewRepository(db *gorm.DB) *Repository {
	return NewRepositoryWithType(db, entities.SyncTypeOfflineQueue)
}

// NewRepositoryWithType creates a sync repository for a specific sync type.
func NewRepositoryWithType(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType, now: time.Now}
}

// GetSyncProgress retrieves the sync progress for the configured sync type.
func (r *Repository) GetSyncProgress() (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.Where("sync_type = ?", r.syncType).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartSync creates or resets the progress record.
// Implements ProgressReporter.StartSync.
func (r *Repository) StartSync(totalItems int) error {
	var progress entities.SyncProgress
	result := r.db.Where("sync_type = ?", r.syncType).First(&progress)

	now := r.now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		progress = entities.SyncProgress{
			SyncType:   r.syncType,
			Status:     entities.SyncStatusRunning,
			TotalItems: totalItems,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return r.db.Create(&progress).Error
	} else if result.Error != nil {
		return result.Error
	}

	progress.Status = entities.SyncStatusRunning
	progress.TotalItems = totalItems
	progress.Processed = 0
	progress.Succeeded = 0
	progress.Failed = 0
	progress.CurrentItem = ""
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return r.db.Save(&progress).Error
}

// UpdateProgress records how far the running pass has got.
// Implements ProgressReporter.UpdateProgress.
func (r *Repository) UpdateProgress(processed, succeeded, failed int, currentItem string) error {
	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(map[string]any{
			"processed":    processed,
			"succeeded":    succeeded,
			"failed":       failed,
			"current_item": currentItem,
			"updated_at":   r.now(),
		}).Error
}

// CompleteSync marks the pass as finished with the given status.
// Implements ProgressReporter.CompleteSync.
func (r *Repository) CompleteSync(status entities.SyncStatus, errorMsg string) error {
	now := r.now()
	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(map[string]any{
			"status":       status,
			"current_item": "",
			"error":        errorMsg,
			"updated_at":   now,
			"completed_at": now,
		}).Error
}

// IsSyncRunning checks if a pass is currently recorded as running.
// A record not updated in staleAfter is closed as interrupted.
func (r *Repository) IsSyncRunning() (bool, error) {
	var progress entities.SyncProgress
	err := r.db.Where("sync_type = ? AND status = ?", r.syncType, entities.SyncStatusRunning).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(r.now().Add(-staleAfter)) {
		_ = r.CompleteSync(entities.SyncStatusInterrupted, "sync was interrupted")
		return false, nil
	}

	return true, nil
}

// RecoverInterrupted closes a running record left behind by a previous
// process. Called once at startup, before any drain can begin.
func (r *Repository) RecoverInterrupted() error {
	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ? AND status = ?", r.syncType, entities.SyncStatusRunning).
		Updates(map[string]any{
			"status":       entities.SyncStatusInterrupted,
			"current_item": "",
			"error":        "process stopped during sync",
			"completed_at": r.now(),
		}).Error
}
