package uploader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/khelo/internal/entities"
)

func TestSimulatedUpload(t *testing.T) {
	item := entities.QueuedItem{ID: "r1", Kind: entities.ItemKindTest, TestID: "t4"}

	t.Run("succeeds and counts attempts", func(t *testing.T) {
		up := NewSimulated(Config{})
		require.NoError(t, up.Upload(context.Background(), item))
		require.NoError(t, up.Upload(context.Background(), item))

		assert.Equal(t, 2, up.Attempts("r1"))
		assert.Equal(t, 2, up.Uploaded("r1"))
		assert.Equal(t, 0, up.Attempts("other"))
		assert.Equal(t, 2, up.TotalAttempts())
	})

	t.Run("forced failure by id", func(t *testing.T) {
		up := NewSimulated(Config{})
		up.FailIDs("r1")

		err := up.Upload(context.Background(), item)
		assert.ErrorIs(t, err, ErrRejected)
		assert.Equal(t, 1, up.Attempts("r1"))
		assert.Equal(t, 0, up.Uploaded("r1"))

		up.ClearFailures()
		assert.NoError(t, up.Upload(context.Background(), item))
	})

	t.Run("failure rate of one always fails", func(t *testing.T) {
		up := NewSimulated(Config{FailureRate: 1})
		for i := 0; i < 5; i++ {
			assert.ErrorIs(t, up.Upload(context.Background(), item), ErrRejected)
		}
	})

	t.Run("latency honours context", func(t *testing.T) {
		up := NewSimulated(Config{MinLatency: time.Minute, MaxLatency: time.Minute})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := up.Upload(ctx, item)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
		assert.Equal(t, 0, up.Uploaded("r1"))
	})

	t.Run("latency stays within bounds", func(t *testing.T) {
		up := NewSimulated(Config{MinLatency: 5 * time.Millisecond, MaxLatency: 10 * time.Millisecond})
		for i := 0; i < 20; i++ {
			d := up.latency()
			assert.GreaterOrEqual(t, d, 5*time.Millisecond)
			assert.Less(t, d, 10*time.Millisecond)
		}
	})
}
