package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/khelo/internal/capture"
	"github.com/mrlokans/khelo/internal/queuestore"
)

type RecordingsController struct {
	recorder Recorder
}

func NewRecordingsController(recorder Recorder) *RecordingsController {
	return &RecordingsController{recorder: recorder}
}

// Record handles POST /api/recordings
func (rc *RecordingsController) Record(c *gin.Context) {
	var req capture.RecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	rec, err := rc.recorder.Record(c.Request.Context(), req)
	switch {
	case errors.Is(err, capture.ErrMissingTest):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, queuestore.ErrDuplicateItem):
		respondError(c, http.StatusConflict, "duplicate_item", err.Error())
		return
	case err != nil:
		respondStoreError(c, err, "record")
		return
	}

	c.JSON(http.StatusCreated, rec)
}
