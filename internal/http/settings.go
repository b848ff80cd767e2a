package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/khelo/internal/entities"
)

type SettingsController struct {
	store   SettingsStore
	monitor ConnectivityMonitor
	audit   AuditLogger
}

func NewSettingsController(store SettingsStore, monitor ConnectivityMonitor, audit AuditLogger) *SettingsController {
	return &SettingsController{store: store, monitor: monitor, audit: audit}
}

// GetSettings handles GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	settings, err := sc.store.Get(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "get settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PATCH /api/settings
// Only the fields present in the body are changed.
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var patch entities.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	before, err := sc.store.Get(ctx)
	if err != nil {
		respondStoreError(c, err, "get settings")
		return
	}

	after, err := sc.store.Update(ctx, patch)
	if err != nil {
		respondStoreError(c, err, "update settings")
		return
	}

	if !patch.IsEmpty() {
		if sc.audit != nil {
			sc.audit.LogSettings("update", describeChanges(before, after))
		}
		if sc.monitor != nil {
			sc.monitor.SettingsChanged(before, after)
		}
	}

	c.JSON(http.StatusOK, after)
}

func describeChanges(before, after entities.Settings) string {
	var changes []string
	flag := func(name string, was, now bool) {
		if was != now {
			if now {
				changes = append(changes, name+" on")
			} else {
				changes = append(changes, name+" off")
			}
		}
	}
	flag("offlineMode", before.OfflineMode, after.OfflineMode)
	flag("autoAnalyze", before.AutoAnalyze, after.AutoAnalyze)
	flag("highContrast", before.HighContrast, after.HighContrast)
	flag("voiceGuidance", before.VoiceGuidance, after.VoiceGuidance)

	if len(changes) == 0 {
		return "No changes"
	}
	return "Changed " + strings.Join(changes, ", ")
}
