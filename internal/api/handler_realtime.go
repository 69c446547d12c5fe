package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"desal-monitor-backend/internal/realtime"
)

// GetRealtimeData handles GET /api/realtime-data.
func (h *Handler) GetRealtimeData(c *gin.Context) {
	mapping, err := h.resolver.Resolve(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Realtime data unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sensor configuration is unavailable"})
		return
	}

	snapshot := h.devices.Snapshot()
	h.metrics.AggregationServed()
	c.JSON(http.StatusOK, realtime.Aggregate(&snapshot, mapping, h.now().UTC()))
}
