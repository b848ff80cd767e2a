package records

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/khelo/internal/database"
	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/queuestore"
	"github.com/mrlokans/khelo/internal/settingsstore"
	"github.com/mrlokans/khelo/internal/storage"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "records.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Record{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_LoadMissing(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Load(context.Background(), "absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_SaveNew(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entities.RecordKeyQueue, []byte(`[]`)))

	data, err := repo.Load(ctx, entities.RecordKeyQueue)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestRepository_SaveReplaces(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "k", []byte(`{"v":1}`)))
	require.NoError(t, repo.Save(ctx, "k", []byte(`{"v":2}`)))

	data, err := repo.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestRepository_IndependentKeys(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entities.RecordKeyQueue, []byte(`[]`)))
	require.NoError(t, repo.Save(ctx, entities.RecordKeySettings, []byte(`{}`)))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{entities.RecordKeyQueue, entities.RecordKeySettings}, keys)
}

func TestRepository_BacksStores(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	t.Run("queue", func(t *testing.T) {
		q := queuestore.New(repo)
		var wg sync.WaitGroup
		for _, id := range []string{"a", "b", "c"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := q.Enqueue(ctx, entities.NewQueuedItem{ID: id, Kind: entities.ItemKindTest})
				assert.NoError(t, err)
			}(id)
		}
		wg.Wait()

		// A fresh store over the same table sees the persisted queue.
		items, err := queuestore.New(repo).List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("settings", func(t *testing.T) {
		s := settingsstore.New(repo)
		off := false
		_, err := s.Update(ctx, entities.SettingsPatch{AutoAnalyze: &off})
		require.NoError(t, err)

		got, err := settingsstore.New(repo).Get(ctx)
		require.NoError(t, err)
		assert.False(t, got.AutoAnalyze)
	})
}

func TestRepository_LockSerializesProcesses(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "khelo.db")

	// Two connections to one file stand in for the server and a CLI command.
	openStore := func() *queuestore.Store {
		db, err := database.NewQuietDatabase(dbPath)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return queuestore.New(NewRepository(db.DB, WithLockFiles(dbPath)))
	}
	server, cli := openStore(), openStore()

	const perWriter = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*perWriter)
	for w, store := range []*queuestore.Store{server, cli} {
		wg.Add(1)
		go func(w int, store *queuestore.Store) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := store.Enqueue(context.Background(), entities.NewQueuedItem{
					ID:   fmt.Sprintf("w%d-%d", w, i),
					Kind: entities.ItemKindTest,
				})
				errs <- err
			}
		}(w, store)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	items, err := server.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2*perWriter)
}

func TestRepository_Lock(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op without lock files", func(t *testing.T) {
		repo := setupTestDB(t)
		unlock, err := repo.Lock(ctx, entities.RecordKeyQueue)
		require.NoError(t, err)
		unlock()
	})

	t.Run("excludes a second holder", func(t *testing.T) {
		prefix := filepath.Join(t.TempDir(), "khelo.db")
		repo := NewRepository(nil, WithLockFiles(prefix))

		unlock, err := repo.Lock(ctx, entities.RecordKeyQueue)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
		defer cancel()
		_, err = repo.Lock(waitCtx, entities.RecordKeyQueue)
		assert.Error(t, err)

		unlock()
		again, err := repo.Lock(ctx, entities.RecordKeyQueue)
		require.NoError(t, err)
		again()
	})

	t.Run("rejects path-like keys", func(t *testing.T) {
		repo := NewRepository(nil, WithLockFiles(filepath.Join(t.TempDir(), "khelo.db")))
		_, err := repo.Lock(ctx, "../evil")
		assert.Error(t, err)
	})
}
