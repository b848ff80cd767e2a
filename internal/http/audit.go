package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/khelo/internal/entities"
)

type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{reader: reader}
}

// GetEvents returns audit events as JSON
// GET /api/audit
func (ac *AuditController) GetEvents(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 100)
	eventType := c.Query("type")

	var events []entities.AuditEvent
	var total int64
	var err error

	if eventType != "" {
		events, total, err = ac.reader.GetEventsByType(entities.AuditEventType(eventType), limit, offset)
	} else {
		events, total, err = ac.reader.GetEvents(limit, offset)
	}

	if err != nil {
		respondInternalError(c, err, "get audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
