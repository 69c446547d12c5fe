package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"desal-monitor-backend/internal/model"
	"desal-monitor-backend/internal/store"
)

// ListSensorConfigs handles GET /api/sensor-config. Pass enabled=true to hide disabled mappings.
func (h *Handler) ListSensorConfigs(c *gin.Context) {
	configs, err := h.configs.ListSensorConfigs(c.Request.Context(), c.Query("enabled") == "true")
	if err != nil {
		h.internalError(c, "Failed to retrieve sensor configuration", err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

type putSensorConfigRequest struct {
	SensorType  model.SensorType `json:"sensorType" binding:"required"`
	DisplayName string           `json:"displayName"`
	IsEnabled   *bool            `json:"isEnabled"`
	SortOrder   int              `json:"sortOrder"`
}

// PutSensorConfig handles PUT /api/sensor-config/:sensor_id.
func (h *Handler) PutSensorConfig(c *gin.Context) {
	var req putSensorConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sensorType is required"})
		return
	}
	if !req.SensorType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sensorType must be one of humidity, air_temperature, water_temperature, water_level"})
		return
	}

	cfg := &model.SensorConfig{
		SensorID:    c.Param("sensor_id"),
		SensorType:  req.SensorType,
		DisplayName: req.DisplayName,
		IsEnabled:   req.IsEnabled == nil || *req.IsEnabled,
		SortOrder:   req.SortOrder,
	}
	if err := h.configs.UpsertSensorConfig(c.Request.Context(), cfg); err != nil {
		h.internalError(c, "Failed to save sensor configuration", err)
		return
	}
	h.resolver.Invalidate()
	h.purge("/api/sensor-config")
	h.log.Info().Str("sensor_id", cfg.SensorID).Str("sensor_type", string(cfg.SensorType)).Bool("enabled", cfg.IsEnabled).Msg("Sensor configuration saved")
	c.JSON(http.StatusOK, cfg)
}

// DeleteSensorConfig handles DELETE /api/sensor-config/:sensor_id.
func (h *Handler) DeleteSensorConfig(c *gin.Context) {
	sensorID := c.Param("sensor_id")
	err := h.configs.DeleteSensorConfig(c.Request.Context(), sensorID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sensor configuration not found"})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to delete sensor configuration", err)
		return
	}
	h.resolver.Invalidate()
	h.purge("/api/sensor-config")
	c.JSON(http.StatusOK, gin.H{"message": "Sensor configuration deleted"})
}
