package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/khelo/internal/entities"
)

func TestAnalyzerRun(t *testing.T) {
	t.Run("returns the generated result", func(t *testing.T) {
		a := NewAnalyzer(Config{})

		got, err := a.Run(context.Background(), Request{
			AthleteID: "A1001",
			TestID:    "t9",
			TestName:  "Sit Ups",
		})
		require.NoError(t, err)
		assert.Equal(t, Generate("A1001", "t9", "Sit Ups", entities.CaptureMetadata{}), got)
	})

	t.Run("uses configured default athlete", func(t *testing.T) {
		a := NewAnalyzer(Config{DefaultAthleteID: "A7777"})

		got, err := a.Run(context.Background(), Request{TestID: "t4", TestName: "Standing Vertical Jump"})
		require.NoError(t, err)
		assert.Equal(t, Generate("A7777", "t4", "Standing Vertical Jump", entities.CaptureMetadata{}), got)
	})

	t.Run("waits at least the minimum delay", func(t *testing.T) {
		a := NewAnalyzer(Config{MinDelay: 20 * time.Millisecond, MaxDelay: 30 * time.Millisecond})

		start := time.Now()
		_, err := a.Run(context.Background(), Request{TestID: "t4"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		a := NewAnalyzer(Config{MinDelay: time.Minute, MaxDelay: time.Minute})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := a.Run(ctx, Request{TestID: "t4"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("already cancelled context with zero delay", func(t *testing.T) {
		a := NewAnalyzer(Config{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := a.Run(ctx, Request{TestID: "t4"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
