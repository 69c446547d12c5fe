package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"desal-monitor-backend/internal/model"
	"desal-monitor-backend/internal/mw"
	"desal-monitor-backend/internal/parse"
	"desal-monitor-backend/internal/store"
)

// ListSensorData handles GET /api/sensors.
func (h *Handler) ListSensorData(c *gin.Context) {
	q, err := parse.List(c.Request.URL.Query(), h.compartments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q.Criteria.OwnerID = mw.OwnerScope(c)

	rows, err := h.store.List(c.Request.Context(), q.Criteria, q.Limit)
	if err != nil {
		h.internalError(c, "Failed to retrieve sensor data", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type createSensorDataRequest struct {
	CompartmentID    *int     `json:"compartment_id"`
	TemperatureAir   *float64 `json:"temperature_air"`
	HumidityAir      *float64 `json:"humidity_air"`
	TemperatureWater *float64 `json:"temperature_water"`
	SensorID         *string  `json:"sensor_id"`
	SensorType       *string  `json:"sensor_type"`
	Value            *float64 `json:"value"`
	Unit             *string  `json:"unit"`
	Interval         *int     `json:"interval"`
}

// validate accepts either a compartment reading with all three quantities
// or a single sensor value.
func (r createSensorDataRequest) validate(compartments int) error {
	if r.SensorID != nil {
		if *r.SensorID == "" || r.Value == nil {
			return errors.New("Missing required fields")
		}
		if r.SensorType != nil && !model.SensorType(*r.SensorType).Valid() {
			return fmt.Errorf("invalid sensor_type %q", *r.SensorType)
		}
		return nil
	}
	if r.CompartmentID == nil || r.TemperatureAir == nil || r.HumidityAir == nil || r.TemperatureWater == nil {
		return errors.New("Missing required fields")
	}
	if *r.CompartmentID < 1 || *r.CompartmentID > compartments {
		return fmt.Errorf("Invalid compartment ID. Must be between 1-%d", compartments)
	}
	return nil
}

// CreateSensorData handles POST /api/sensors.
func (h *Handler) CreateSensorData(c *gin.Context) {
	var req createSensorDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := req.validate(h.compartments); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := &model.SensorData{
		CompartmentID:    req.CompartmentID,
		TemperatureAir:   req.TemperatureAir,
		HumidityAir:      req.HumidityAir,
		TemperatureWater: req.TemperatureWater,
		SensorID:         req.SensorID,
		SensorType:       req.SensorType,
		Value:            req.Value,
		Unit:             req.Unit,
		Interval:         req.Interval,
	}
	if o, ok := mw.OwnerFrom(c); ok {
		id := o.UserID
		record.UserID = &id
	}

	if err := h.store.Create(c.Request.Context(), record); err != nil {
		h.internalError(c, "Failed to create sensor data", err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// DeleteSensorData handles DELETE /api/sensors/:id.
func (h *Handler) DeleteSensorData(c *gin.Context) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	n, err := h.store.Delete(c.Request.Context(), store.Criteria{ID: &id, OwnerID: mw.OwnerScope(c)})
	if err != nil {
		h.internalError(c, "Failed to delete sensor data", err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Data not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Data deleted successfully"})
}

// DeleteAllSensorData handles DELETE /api/sensors. With sensor_type or
// sensor_id filters only the matching rows are removed.
func (h *Handler) DeleteAllSensorData(c *gin.Context) {
	criteria, err := parse.Filter(c.Request.URL.Query(), h.compartments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filtered := !criteria.IsEmpty()
	criteria.OwnerID = mw.OwnerScope(c)

	n, err := h.store.Delete(c.Request.Context(), criteria)
	if err != nil {
		h.internalError(c, "Failed to delete sensor data", err)
		return
	}

	message := "All data deleted successfully"
	if filtered {
		message = "Matching data deleted successfully"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "deletedCount": n})
}

// DeleteByCompartment handles DELETE /api/sensors/compartment/:compartment.
func (h *Handler) DeleteByCompartment(c *gin.Context) {
	raw := c.Param("compartment")
	compartment, err := parse.Compartment(raw, h.compartments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "received": raw})
		return
	}

	n, err := h.store.Delete(c.Request.Context(), store.Criteria{CompartmentID: &compartment, OwnerID: mw.OwnerScope(c)})
	if err != nil {
		h.internalError(c, "Failed to delete sensor data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("All data for compartment %d deleted successfully", compartment),
		"deletedCount": n,
	})
}

// DeleteByInterval handles DELETE /api/sensors/interval/:interval.
func (h *Handler) DeleteByInterval(c *gin.Context) {
	interval, err := parse.Interval(c.Param("interval"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.store.Delete(c.Request.Context(), store.Criteria{Interval: &interval, OwnerID: mw.OwnerScope(c)})
	if err != nil {
		h.internalError(c, "Failed to delete sensor data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("Data with interval %ds deleted successfully", interval),
		"deletedCount": n,
	})
}

// GetDatabaseStatus handles GET /api/database/status.
func (h *Handler) GetDatabaseStatus(c *gin.Context) {
	status, err := h.store.Status(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to get database status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to get stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
