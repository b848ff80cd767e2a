package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/audit"
	"github.com/mrlokans/khelo/internal/database"
	auditrepo "github.com/mrlokans/khelo/internal/database/audit"
	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/syncengine"
)

type fakeDrainer struct {
	mu      sync.Mutex
	calls   int
	summary syncengine.Summary
	err     error
	ctxErr  error
	block   bool
}

func (f *fakeDrainer) Drain(ctx context.Context) (syncengine.Summary, error) {
	if f.block {
		<-ctx.Done()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ctxErr = ctx.Err()
	return f.summary, f.err
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	itemID string
	req    analysis.Request
	err    error
	done   chan struct{}
}

func (f *fakeAnalyzer) Analyze(_ context.Context, itemID string, req analysis.Request) (entities.AnalysisResult, error) {
	f.mu.Lock()
	f.itemID = itemID
	f.req = req
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	if f.err != nil {
		return entities.AnalysisResult{}, f.err
	}
	return analysis.Generate(req.AthleteID, req.TestID, req.TestName, req.Metadata), nil
}

type fakePruner struct {
	retention time.Duration
	err       error
}

func (f *fakePruner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return 4, f.err
}

func TestDrainQueueTaskConfig(t *testing.T) {
	cfg := DrainQueueTask{}.Config()

	assert.Equal(t, "drain_queue", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.NotNil(t, cfg.Retention)
}

func TestDrainQueueProcessor(t *testing.T) {
	t.Run("runs a pass", func(t *testing.T) {
		drainer := &fakeDrainer{summary: syncengine.Summary{Total: 2, Succeeded: 2}}
		err := DrainQueueProcessor(drainer, nil)(context.Background(), DrainQueueTask{Reason: "test"})
		require.NoError(t, err)
		assert.Equal(t, 1, drainer.calls)
	})

	t.Run("item failures are not task failures", func(t *testing.T) {
		drainer := &fakeDrainer{summary: syncengine.Summary{Total: 2, Failed: 2, Remaining: 2}}
		assert.NoError(t, DrainQueueProcessor(drainer, nil)(context.Background(), DrainQueueTask{}))
	})

	t.Run("storage errors fail the task", func(t *testing.T) {
		drainer := &fakeDrainer{err: errors.New("queue store: read: boom")}
		err := DrainQueueProcessor(drainer, nil)(context.Background(), DrainQueueTask{})
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("ended session stops the pass", func(t *testing.T) {
		session, endSession := context.WithCancel(context.Background())
		drainer := &fakeDrainer{block: true}

		done := make(chan error)
		go func() {
			done <- DrainQueueProcessor(drainer, func() context.Context { return session })(context.Background(), DrainQueueTask{})
		}()
		endSession()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("drain did not observe the ended session")
		}
		assert.ErrorIs(t, drainer.ctxErr, context.Canceled)
	})

	t.Run("nil drainer", func(t *testing.T) {
		assert.Error(t, DrainQueueProcessor(nil, nil)(context.Background(), DrainQueueTask{}))
	})
}

func TestAnalyzeRecordingProcessor(t *testing.T) {
	t.Run("analyzes", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		task := AnalyzeRecordingTask{ItemID: "r1", Request: analysis.Request{AthleteID: "A1001", TestID: "t4", TestName: "Vertical Jump"}}

		require.NoError(t, AnalyzeRecordingProcessor(analyzer)(context.Background(), task))
		assert.Equal(t, "r1", analyzer.itemID)
		assert.Equal(t, "Vertical Jump", analyzer.req.TestName)
	})

	t.Run("failure is returned for retry", func(t *testing.T) {
		analyzer := &fakeAnalyzer{err: errors.New("db locked")}
		err := AnalyzeRecordingProcessor(analyzer)(context.Background(), AnalyzeRecordingTask{ItemID: "r1"})
		assert.ErrorContains(t, err, "r1")
	})

	t.Run("config", func(t *testing.T) {
		cfg := AnalyzeRecordingTask{}.Config()
		assert.Equal(t, "analyze_recording", cfg.Name)
		assert.Equal(t, 3, cfg.MaxAttempts)
	})
}

func TestPruneAuditProcessor(t *testing.T) {
	t.Run("uses the task's retention", func(t *testing.T) {
		pruner := &fakePruner{}
		require.NoError(t, PruneAuditProcessor(pruner)(context.Background(), PruneAuditTask{RetentionDays: 7}))
		assert.Equal(t, 7*24*time.Hour, pruner.retention)
	})

	t.Run("falls back to the default retention", func(t *testing.T) {
		pruner := &fakePruner{}
		require.NoError(t, PruneAuditProcessor(pruner)(context.Background(), PruneAuditTask{}))
		assert.Equal(t, 30*24*time.Hour, pruner.retention)
	})

	t.Run("pruner errors are returned for retry", func(t *testing.T) {
		pruner := &fakePruner{err: errors.New("database is locked")}
		assert.Error(t, PruneAuditProcessor(pruner)(context.Background(), PruneAuditTask{}))
	})

	t.Run("nil pruner", func(t *testing.T) {
		assert.Error(t, PruneAuditProcessor(nil)(context.Background(), PruneAuditTask{}))
	})

	t.Run("config", func(t *testing.T) {
		cfg := PruneAuditTask{}.Config()
		assert.Equal(t, "prune_audit_log", cfg.Name)
		assert.Equal(t, 2, cfg.MaxAttempts)
	})
}

func TestPruneAuditAgainstAuditLog(t *testing.T) {
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "khelo.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := auditrepo.NewRepository(db.DB)
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{Action: "drain", CreatedAt: time.Now().Add(-10 * 24 * time.Hour)}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{Action: "record", CreatedAt: time.Now().Add(-2 * 24 * time.Hour)}))
	service := audit.NewService(repo)

	require.NoError(t, PruneAuditProcessor(service)(context.Background(), PruneAuditTask{RetentionDays: 7}))

	events, total, err := service.GetEvents(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "record", events[0].Action)
}

func TestSchedulerRunsTasks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "khelo.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	drainer := &fakeDrainer{}
	analyzer := &fakeAnalyzer{done: make(chan struct{})}
	client.Register(
		NewDrainQueueQueue(drainer, nil),
		NewAnalyzeRecordingQueue(analyzer),
		NewPruneAuditQueue(&fakePruner{}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	scheduler := NewScheduler(client)
	require.NoError(t, scheduler.ScheduleAnalysis(ctx, "r1", analysis.Request{TestID: "t4", TestName: "Vertical Jump"}))

	select {
	case <-analyzer.done:
	case <-time.After(5 * time.Second):
		t.Fatal("analysis task was not executed within timeout")
	}

	scheduler.DrainTrigger("online")(ctx)
	assert.Eventually(t, func() bool {
		drainer.mu.Lock()
		defer drainer.mu.Unlock()
		return drainer.calls == 1
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, scheduler.ScheduleAuditPrune(ctx))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx))
}
