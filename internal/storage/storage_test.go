package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("load missing key returns ErrNotFound", func(t *testing.T) {
		b := NewMemoryBackend()
		_, err := b.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save then load round trips bytes", func(t *testing.T) {
		b := NewMemoryBackend()
		require.NoError(t, b.Save(ctx, "k", []byte(`{"a":1}`)))

		data, err := b.Load(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(data))
		assert.Equal(t, 1, b.Saves())
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		b := NewMemoryBackend()
		require.NoError(t, b.Save(ctx, "k", []byte("abc")))

		data, err := b.Load(ctx, "k")
		require.NoError(t, err)
		data[0] = 'z'

		again, err := b.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("injected failures are returned", func(t *testing.T) {
		b := NewMemoryBackend()
		boom := errors.New("disk on fire")
		b.SetFailSave(boom)
		assert.ErrorIs(t, b.Save(ctx, "k", []byte("x")), boom)
		assert.Equal(t, 0, b.Saves())

		b.SetFailSave(nil)
		b.SetFailLoad(boom)
		_, err := b.Load(ctx, "k")
		assert.ErrorIs(t, err, boom)
	})
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "store")
		_, err := NewFileBackend(dir)
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("load missing key returns ErrNotFound", func(t *testing.T) {
		b, err := NewFileBackend(t.TempDir())
		require.NoError(t, err)

		_, err = b.Load(ctx, "queue")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save replaces the whole record", func(t *testing.T) {
		dir := t.TempDir()
		b, err := NewFileBackend(dir)
		require.NoError(t, err)

		require.NoError(t, b.Save(ctx, "queue", []byte(`[1,2,3]`)))
		require.NoError(t, b.Save(ctx, "queue", []byte(`[4]`)))

		data, err := b.Load(ctx, "queue")
		require.NoError(t, err)
		assert.Equal(t, `[4]`, string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp files should not be left behind")
	})

	t.Run("rejects keys that escape the directory", func(t *testing.T) {
		b, err := NewFileBackend(t.TempDir())
		require.NoError(t, err)

		assert.Error(t, b.Save(ctx, "../evil", []byte("x")))
		_, err = b.Load(ctx, "a/b")
		assert.Error(t, err)
	})
}

func TestFileBackendLock(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	unlock, err := LockRecord(ctx, b, "queue")
	require.NoError(t, err)

	t.Run("second holder waits for the context", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
		defer cancel()

		_, err := b.Lock(waitCtx, "queue")
		assert.Error(t, err)
	})

	t.Run("other keys are independent", func(t *testing.T) {
		unlockSettings, err := b.Lock(ctx, "settings")
		require.NoError(t, err)
		unlockSettings()
	})

	unlock()

	t.Run("released lock can be taken again", func(t *testing.T) {
		again, err := b.Lock(ctx, "queue")
		require.NoError(t, err)
		again()
	})

	t.Run("rejects keys that escape the directory", func(t *testing.T) {
		_, err := b.Lock(ctx, "../evil")
		assert.Error(t, err)
	})
}

func TestLockRecordWithoutLocker(t *testing.T) {
	unlock, err := LockRecord(context.Background(), NewMemoryBackend(), "queue")
	require.NoError(t, err)
	assert.NotPanics(t, unlock)
}
