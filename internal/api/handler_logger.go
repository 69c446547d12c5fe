package api

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLoggerInterval bounds the period accepted from clients.
const maxLoggerInterval = 24 * time.Hour

// GetLoggerStatus handles GET /api/logger/status.
func (h *Handler) GetLoggerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.Status())
}

// StartLogger handles POST /api/logger/start.
func (h *Handler) StartLogger(c *gin.Context) {
	status := h.logger.Start()
	c.JSON(http.StatusOK, gin.H{"message": "Logger started", "status": status})
}

// StopLogger handles POST /api/logger/stop.
func (h *Handler) StopLogger(c *gin.Context) {
	status := h.logger.Stop()
	c.JSON(http.StatusOK, gin.H{"message": "Logger stopped", "status": status})
}

type loggerConfigRequest struct {
	Interval *float64 `json:"interval"` // milliseconds
}

// ConfigureLogger handles POST /api/logger/config.
func (h *Handler) ConfigureLogger(c *gin.Context) {
	var req loggerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Interval == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid interval provided"})
		return
	}
	ms := *req.Interval
	if math.IsNaN(ms) || ms <= 0 || ms > float64(maxLoggerInterval/time.Millisecond) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid interval provided"})
		return
	}

	status, err := h.logger.SetInterval(time.Duration(ms * float64(time.Millisecond)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid interval provided"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Interval updated", "status": status})
}
