package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/audit"
	"github.com/mrlokans/khelo/internal/capture"
	"github.com/mrlokans/khelo/internal/connectivity"
	"github.com/mrlokans/khelo/internal/crypto"
	"github.com/mrlokans/khelo/internal/database"
	"github.com/mrlokans/khelo/internal/database/analyses"
	"github.com/mrlokans/khelo/internal/database/records"
	"github.com/mrlokans/khelo/internal/database/sync"
	"github.com/mrlokans/khelo/internal/http"
	"github.com/mrlokans/khelo/internal/metrics"
	"github.com/mrlokans/khelo/internal/queuestore"
	"github.com/mrlokans/khelo/internal/settingsstore"
	"github.com/mrlokans/khelo/internal/storage"
	"github.com/mrlokans/khelo/internal/syncengine"
	"github.com/mrlokans/khelo/internal/tasks"
	"github.com/mrlokans/khelo/internal/uploader"
)

// =============================================================================
// Storage
// =============================================================================

var _ storage.Backend = (*storage.MemoryBackend)(nil)
var _ storage.Backend = (*storage.FileBackend)(nil)
var _ storage.Backend = (*records.Repository)(nil)
var _ storage.Locker = (*storage.FileBackend)(nil)
var _ storage.Locker = (*records.Repository)(nil)

// =============================================================================
// Sync Engine
// =============================================================================

var _ syncengine.Queue = (*queuestore.Store)(nil)
var _ syncengine.Uploader = (*uploader.Simulated)(nil)
var _ syncengine.Encrypter = (*crypto.ItemSealer)(nil)
var _ syncengine.ProgressReporter = (*sync.Repository)(nil)
var _ syncengine.AuditLogger = (*audit.Service)(nil)
var _ syncengine.Observer = (*metrics.Recorder)(nil)

// =============================================================================
// Capture and Analysis
// =============================================================================

var _ capture.Queue = (*queuestore.Store)(nil)
var _ capture.SettingsReader = (*settingsstore.SettingsStore)(nil)
var _ capture.Analyzer = (*analysis.Analyzer)(nil)
var _ capture.AnalysisSaver = (*analyses.Repository)(nil)
var _ capture.AnalysisScheduler = (*tasks.Scheduler)(nil)
var _ capture.AuditLogger = (*audit.Service)(nil)

var _ connectivity.SettingsReader = (*settingsstore.SettingsStore)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.Drainer = (*syncengine.Engine)(nil)
var _ tasks.RecordingAnalyzer = (*capture.Service)(nil)
var _ tasks.AuditPruner = (*audit.Service)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.QueueStore = (*queuestore.Store)(nil)
var _ http.SyncEngine = (*syncengine.Engine)(nil)
var _ http.SettingsStore = (*settingsstore.SettingsStore)(nil)
var _ http.Recorder = (*capture.Service)(nil)
var _ http.ConnectivityMonitor = (*connectivity.Monitor)(nil)
var _ http.ProgressReader = (*sync.Repository)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.AuditLogger = (*audit.Service)(nil)
var _ http.TaskScheduler = (*tasks.Scheduler)(nil)
var _ http.Pinger = (*database.Database)(nil)
