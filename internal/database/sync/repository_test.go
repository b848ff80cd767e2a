package sync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/khelo/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sync.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.SyncProgress{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_StartSync(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.StartSync(100)
	require.NoError(t, err)

	progress, err := repo.GetSyncProgress()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncTypeOfflineQueue, progress.SyncType)
	assert.Equal(t, entities.SyncStatusRunning, progress.Status)
	assert.Equal(t, 100, progress.TotalItems)
	assert.Equal(t, 0, progress.Processed)
	assert.Nil(t, progress.CompletedAt)
}

func TestRepository_StartSync_ResetsExisting(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.StartSync(10))
	require.NoError(t, repo.UpdateProgress(5, 4, 1, "item-5"))
	require.NoError(t, repo.CompleteSync(entities.SyncStatusCompleted, "1 items failed"))

	require.NoError(t, repo.StartSync(3))

	progress, err := repo.GetSyncProgress()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusRunning, progress.Status)
	assert.Equal(t, 3, progress.TotalItems)
	assert.Equal(t, 0, progress.Processed)
	assert.Equal(t, 0, progress.Failed)
	assert.Empty(t, progress.Error)
	assert.Nil(t, progress.CompletedAt)
}

func TestRepository_UpdateProgress(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.StartSync(10))
	require.NoError(t, repo.UpdateProgress(3, 2, 1, "recording_t4_1"))

	progress, err := repo.GetSyncProgress()
	require.NoError(t, err)
	assert.Equal(t, 3, progress.Processed)
	assert.Equal(t, 2, progress.Succeeded)
	assert.Equal(t, 1, progress.Failed)
	assert.Equal(t, "recording_t4_1", progress.CurrentItem)
}

func TestRepository_CompleteSync(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.StartSync(2))
	require.NoError(t, repo.CompleteSync(entities.SyncStatusInterrupted, ""))

	progress, err := repo.GetSyncProgress()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusInterrupted, progress.Status)
	assert.NotNil(t, progress.CompletedAt)
	assert.Empty(t, progress.CurrentItem)
}

func TestRepository_IsSyncRunning(t *testing.T) {
	repo := setupTestDB(t)

	running, err := repo.IsSyncRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, repo.StartSync(5))
	running, err = repo.IsSyncRunning()
	require.NoError(t, err)
	assert.True(t, running)

	require.NoError(t, repo.CompleteSync(entities.SyncStatusCompleted, ""))
	running, err = repo.IsSyncRunning()
	require.NoError(t, err)
	assert.False(t, running)
}

func TestRepository_IsSyncRunning_Stale(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.StartSync(5))

	repo.now = func() time.Time { return time.Now().Add(time.Hour) }

	running, err := repo.IsSyncRunning()
	require.NoError(t, err)
	assert.False(t, running)

	progress, err := repo.GetSyncProgress()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusInterrupted, progress.Status)
}

func TestRepository_RecoverInterrupted(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.RecoverInterrupted())

	require.NoError(t, repo.StartSync(5))
	require.NoError(t, repo.RecoverInterrupted())

	progress, err := repo.GetSyncProgress()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusInterrupted, progress.Status)
	assert.Equal(t, "process stopped during sync", progress.Error)
}
