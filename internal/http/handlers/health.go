package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping     func(ctx context.Context) error
	stats    func() any
	draining func() bool
}

// NewHealthHandler builds the liveness and readiness handlers. ping checks the storage backend;
// stats, when set, is reported on /healthz.
func NewHealthHandler(ping func(ctx context.Context) error, stats func() any) *HealthHandler {
	return &HealthHandler{ping: ping, stats: stats}
}

// WithDraining makes /readyz fail once fn reports the server is shutting down,
// so load balancers stop routing before connections are closed.
func (h *HealthHandler) WithDraining(fn func() bool) *HealthHandler {
	h.draining = fn
	return h
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.stats != nil {
		body["scheduling"] = h.stats()
	}
	ctx.JSON(http.StatusOK, body)
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.draining != nil && h.draining() {
		RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Shutting down", nil)
		return
	}

	if h.ping != nil {
		c, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		defer cancel()

		if err := h.ping(c); err != nil {
			RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Storage is unavailable", nil)
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
