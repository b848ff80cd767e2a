package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/khelo/internal/capture"
	"github.com/mrlokans/khelo/internal/connectivity"
	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/queuestore"
	"github.com/mrlokans/khelo/internal/syncengine"
)

// Each controller depends on the narrow interface it needs; this file
// collects them in one place.

type QueueStore interface {
	Enqueue(ctx context.Context, item entities.NewQueuedItem) (entities.QueuedItem, error)
	List(ctx context.Context) ([]entities.QueuedItem, error)
	Remove(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (queuestore.Stats, error)
}

type SyncEngine interface {
	Drain(ctx context.Context) (syncengine.Summary, error)
	IsSyncing() bool
	LastSummary() (syncengine.Summary, bool)
}

type SettingsStore interface {
	Get(ctx context.Context) (entities.Settings, error)
	Update(ctx context.Context, patch entities.SettingsPatch) (entities.Settings, error)
}

type Recorder interface {
	Record(ctx context.Context, req capture.RecordingRequest) (capture.Recording, error)
}

type ConnectivityMonitor interface {
	SetOnline(ctx context.Context, online bool)
	CheckOnline(ctx context.Context) error
	Bind(ctx context.Context) (context.Context, context.CancelFunc)
	Status(ctx context.Context) connectivity.Status
	SettingsChanged(before, after entities.Settings)
}

type ProgressReader interface {
	GetSyncProgress() (*entities.SyncProgress, error)
}

type AuditReader interface {
	GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type AuditLogger interface {
	LogSettings(action, description string)
	LogQueue(action, itemID string)
}

type TaskScheduler interface {
	ScheduleDrain(ctx context.Context, reason string) (string, error)
	TaskStatus(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
