package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything readiness can probe: the database pool, the revocation store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler exposes liveness and readiness endpoints.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler probes every named dependency on readiness. Nil pingers are skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	kept := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			kept[name] = p
		}
	}
	return &HealthHandler{checks: kept, timeout: 2 * time.Second}
}

// Liveness responds OK if the process is up; it doesn't check dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness reports 503 with the failing dependency names when any probe fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var failed []string
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"failed": failed,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
