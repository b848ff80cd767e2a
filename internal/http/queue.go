package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/queuestore"
)

type QueueController struct {
	queue QueueStore
	audit AuditLogger
}

func NewQueueController(queue QueueStore, audit AuditLogger) *QueueController {
	return &QueueController{queue: queue, audit: audit}
}

// QueueResponse is the queue listing together with its summary.
type QueueResponse struct {
	Count          int                   `json:"count"`
	TotalSizeBytes int64                 `json:"total_size_bytes"`
	Items          []entities.QueuedItem `json:"items"`
}

// List handles GET /api/queue
func (qc *QueueController) List(c *gin.Context) {
	items, err := qc.queue.List(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list queue")
		return
	}

	resp := QueueResponse{Count: len(items), Items: items}
	for _, item := range items {
		resp.TotalSizeBytes += item.SizeBytes
	}
	c.JSON(http.StatusOK, resp)
}

// Enqueue handles POST /api/queue
func (qc *QueueController) Enqueue(c *gin.Context) {
	var req entities.NewQueuedItem
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := qc.queue.Enqueue(c.Request.Context(), req)
	switch {
	case errors.Is(err, queuestore.ErrDuplicateItem):
		respondError(c, http.StatusConflict, "duplicate_item", err.Error())
		return
	case errors.Is(err, queuestore.ErrInvalidItem):
		respondError(c, http.StatusBadRequest, "invalid_item", err.Error())
		return
	case err != nil:
		respondStoreError(c, err, "enqueue")
		return
	}

	if qc.audit != nil {
		qc.audit.LogQueue("enqueue", item.ID)
	}
	c.JSON(http.StatusCreated, item)
}

// Remove handles DELETE /api/queue/:id
// Removing an id that is not queued still answers 204.
func (qc *QueueController) Remove(c *gin.Context) {
	id := c.Param("id")
	removed, err := qc.queue.Remove(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "remove queue item")
		return
	}
	if removed && qc.audit != nil {
		qc.audit.LogQueue("remove", id)
	}
	c.Status(http.StatusNoContent)
}
