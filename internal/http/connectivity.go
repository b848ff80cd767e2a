package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ConnectivityController struct {
	monitor ConnectivityMonitor
}

func NewConnectivityController(monitor ConnectivityMonitor) *ConnectivityController {
	return &ConnectivityController{monitor: monitor}
}

// ConnectivityRequest is the body of PUT /api/connectivity.
type ConnectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// GetStatus handles GET /api/connectivity
func (cc *ConnectivityController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, cc.monitor.Status(c.Request.Context()))
}

// SetStatus handles PUT /api/connectivity
// Going online may start a drain in the background.
func (cc *ConnectivityController) SetStatus(c *gin.Context) {
	var req ConnectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cc.monitor.SetOnline(c.Request.Context(), *req.Online)
	c.JSON(http.StatusOK, cc.monitor.Status(c.Request.Context()))
}
