package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetSystemStatus reports the database and which queue and cache are in use.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	status := http.StatusOK
	db := "ok"
	if h.Database != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Database.Ping(ctx); err != nil {
			zap.L().Warn("database ping failed", zap.Error(err))
			db = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{
		"database":  db,
		"queue":     h.QueueMode,
		"cache":     h.CacheMode,
		"payments":  h.Payments != nil,
		"assistant": h.Assistant != nil,
	})
}
