package http

import "net/http"

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Queue    QueueStore
	Engine   SyncEngine
	Settings SettingsStore
	Recorder Recorder

	// Optional collaborators; nil disables the matching feature.
	Monitor      ConnectivityMonitor
	Progress     ProgressReader
	AuditReader  AuditReader
	AuditLogger  AuditLogger
	Scheduler    TaskScheduler
	HealthChecks map[string]Pinger
	Metrics      http.Handler

	// Application info
	Version string
}
