package audit

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/khelo/internal/database/audit"
	"github.com/mrlokans/khelo/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewService(auditRepo.NewRepository(db)), db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventQueue,
		Action:      "enqueue",
		Description: "Test event",
		Status:      entities.AuditStatusSuccess,
	}

	require.NoError(t, svc.Log(event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "enqueue", saved.Action)
}

func TestService_LogSync(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful drain", func(t *testing.T) {
		svc.LogSync("drain", "Drained 2 of 2 items", nil)
		svc.Flush()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ? AND status = ?", "drain", entities.AuditStatusSuccess).First(&event).Error)
		assert.Equal(t, entities.AuditEventSync, event.EventType)
		assert.Equal(t, "Drained 2 of 2 items", event.Description)
	})

	t.Run("aborted drain", func(t *testing.T) {
		svc.LogSync("drain", "Drained 0 of 2 items", errors.New("queue store: write khelo_local_queue: disk full"))
		svc.Flush()

		var event entities.AuditEvent
		require.NoError(t, db.Where("status = ?", entities.AuditStatusFailed).First(&event).Error)
		assert.Contains(t, event.ErrorMsg, "disk full")
	})
}

func TestService_LogCapture(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogCapture("recording_t4_1", "t4", "Standing Vertical Jump", 512, nil)
	svc.Flush()

	var event entities.AuditEvent
	require.NoError(t, db.Where("entity_id = ?", "recording_t4_1").First(&event).Error)
	assert.Equal(t, entities.AuditEventCapture, event.EventType)
	assert.Equal(t, "queue_item", event.EntityType)
	assert.Contains(t, event.Metadata, `"size_bytes":512`)
}

func TestService_LogAnalysis(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAnalysis("r1", entities.AnalysisResult{Variant: entities.AnalysisVariantJump, Confidence: 0.9}, nil)
	svc.LogAnalysis("r2", entities.AnalysisResult{}, errors.New("context canceled"))
	svc.Flush()

	var ok, failed entities.AuditEvent
	require.NoError(t, db.Where("entity_id = ?", "r1").First(&ok).Error)
	require.NoError(t, db.Where("entity_id = ?", "r2").First(&failed).Error)

	assert.Contains(t, ok.Metadata, `"variant":"jump"`)
	assert.Equal(t, entities.AuditStatusFailed, failed.Status)
	assert.Empty(t, failed.Metadata)
}

func TestService_LogSettingsAndQueue(t *testing.T) {
	svc, _ := setupTestService(t)

	svc.LogSettings("update", "offlineMode=true")
	svc.LogQueue("remove", "r9")
	svc.Flush()

	events, total, err := svc.GetEvents(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, events, 2)

	settings, total, err := svc.GetEventsByType(entities.AuditEventSettings, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "update", settings[0].Action)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	oldEvent := &entities.AuditEvent{
		EventType: entities.AuditEventSync,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		EventType: entities.AuditEventSync,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, truncate(tc.input, tc.maxLen))
	}
}
