package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency whose liveness the health endpoint reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	checks  map[string]Pinger
	version string
}

func NewHealthController(checks map[string]Pinger, version string) *HealthController {
	return &HealthController{
		checks:  checks,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	status := "healthy"

	for name, pinger := range h.checks {
		if pinger == nil {
			checks[name] = "not configured"
			continue
		}
		if err := pinger.Ping(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			status = "unhealthy"
			continue
		}
		checks[name] = "ok"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
