package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks       map[string]Pinger
	shuttingDown func() bool
}

// NewHealthHandler takes the dependencies readiness depends on, by name.
// shuttingDown may be nil.
func NewHealthHandler(checks map[string]Pinger, shuttingDown func() bool) *HealthHandler {
	if shuttingDown == nil {
		shuttingDown = func() bool { return false }
	}
	return &HealthHandler{checks: checks, shuttingDown: shuttingDown}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.shuttingDown() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(cctx); err != nil {
			slog.Default().WarnContext(cctx, "readiness check failed", "check", name, "err", err)
			failed[name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
