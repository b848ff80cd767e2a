package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional collaborators left nil in cfg simply leave their routes out.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.HealthChecks, cfg.Version)
	queue := NewQueueController(cfg.Queue, cfg.AuditLogger)
	syncCtl := NewSyncController(cfg.Engine, cfg.Queue, cfg.Monitor, cfg.Progress, cfg.Scheduler)
	settings := NewSettingsController(cfg.Settings, cfg.Monitor, cfg.AuditLogger)
	analysisCtl := NewAnalysisController()

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := router.Group("/api")

	// Offline queue
	api.GET("/queue", queue.List)
	api.POST("/queue", queue.Enqueue)
	api.DELETE("/queue/:id", queue.Remove)

	// Sync
	api.POST("/sync", syncCtl.Sync)
	api.GET("/sync/status", syncCtl.Status)

	// Settings
	api.GET("/settings", settings.GetSettings)
	api.PATCH("/settings", settings.UpdateSettings)

	// Analysis
	api.POST("/analysis", analysisCtl.Generate)

	if cfg.Recorder != nil {
		recordings := NewRecordingsController(cfg.Recorder)
		api.POST("/recordings", recordings.Record)
	}

	if cfg.Monitor != nil {
		connectivity := NewConnectivityController(cfg.Monitor)
		api.GET("/connectivity", connectivity.GetStatus)
		api.PUT("/connectivity", connectivity.SetStatus)
	}

	if cfg.AuditReader != nil {
		audit := NewAuditController(cfg.AuditReader)
		api.GET("/audit", audit.GetEvents)
	}

	if cfg.Scheduler != nil {
		tasksCtl := NewTasksController(cfg.Scheduler)
		api.GET("/tasks/:id", tasksCtl.GetTaskStatus)
	}

	return router
}
