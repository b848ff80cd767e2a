package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/khelo/internal/connectivity"
	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/syncengine"
)

type SyncController struct {
	engine    SyncEngine
	queue     QueueStore
	monitor   ConnectivityMonitor
	progress  ProgressReader
	scheduler TaskScheduler
}

func NewSyncController(engine SyncEngine, queue QueueStore, monitor ConnectivityMonitor, progress ProgressReader, scheduler TaskScheduler) *SyncController {
	return &SyncController{
		engine:    engine,
		queue:     queue,
		monitor:   monitor,
		progress:  progress,
		scheduler: scheduler,
	}
}

// SyncStatusResponse describes the current drain state.
type SyncStatusResponse struct {
	Syncing     bool                   `json:"syncing"`
	Queued      int                    `json:"queued"`
	LastSummary *syncengine.Summary    `json:"last_summary,omitempty"`
	Progress    *entities.SyncProgress `json:"progress,omitempty"`
}

// Sync handles POST /api/sync
// By default the drain runs inside the request and its summary is returned.
// With ?async=true the drain is handed to the task queue (or a goroutine when
// no task queue is configured) and 202 is returned straight away.
func (sc *SyncController) Sync(c *gin.Context) {
	ctx := c.Request.Context()

	if sc.monitor != nil {
		if err := sc.monitor.CheckOnline(ctx); err != nil {
			if errors.Is(err, connectivity.ErrOffline) {
				respondError(c, http.StatusConflict, "offline", err.Error())
				return
			}
			respondStoreError(c, err, "check connectivity")
			return
		}
	}

	if queryBool(c, "async") {
		sc.syncAsync(c)
		return
	}

	if sc.monitor != nil {
		var cancel context.CancelFunc
		ctx, cancel = sc.monitor.Bind(ctx)
		defer cancel()
	}

	summary, err := sc.engine.Drain(ctx)
	if err != nil {
		respondStoreError(c, err, "drain queue")
		return
	}
	if summary.Skipped {
		respondAccepted(c, "sync already in progress", summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (sc *SyncController) syncAsync(c *gin.Context) {
	if sc.scheduler != nil {
		taskID, err := sc.scheduler.ScheduleDrain(c.Request.Context(), "api")
		if err != nil {
			respondInternalError(c, err, "schedule drain")
			return
		}
		respondAccepted(c, "sync scheduled", gin.H{"task_id": taskID})
		return
	}

	ctx := context.Background()
	cancel := func() {}
	if sc.monitor != nil {
		ctx, cancel = sc.monitor.Bind(ctx)
	}
	go func() {
		defer cancel()
		if _, err := sc.engine.Drain(ctx); err != nil {
			log.Printf("[SYNC] Background drain failed: %v", err)
		}
	}()
	respondAccepted(c, "sync started", nil)
}

// Status handles GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	resp := SyncStatusResponse{Syncing: sc.engine.IsSyncing()}

	stats, err := sc.queue.Stats(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "queue stats")
		return
	}
	resp.Queued = stats.Count

	if summary, ok := sc.engine.LastSummary(); ok {
		resp.LastSummary = &summary
	}

	if sc.progress != nil {
		progress, err := sc.progress.GetSyncProgress()
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			respondInternalError(c, err, "sync progress")
			return
		}
		resp.Progress = progress
	}

	c.JSON(http.StatusOK, resp)
}
