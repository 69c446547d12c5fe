package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"desal-monitor-backend/internal/devicecache"
)

// maxReadingsPerRequest bounds a single device upload.
const maxReadingsPerRequest = 64

type deviceReading struct {
	Category devicecache.Category `json:"category"`
	SensorID string               `json:"sensorId"`
	Value    *float64             `json:"value"`
	Status   devicecache.Status   `json:"status"`
}

type deviceReadingsRequest struct {
	Readings []deviceReading `json:"readings"`
}

// entry defaults the status from whether a value was sent.
func entry(value *float64, status devicecache.Status) (devicecache.Entry, error) {
	switch status {
	case devicecache.StatusActive, devicecache.StatusInactive:
	case "":
		status = devicecache.StatusInactive
		if value != nil {
			status = devicecache.StatusActive
		}
	default:
		return devicecache.Entry{}, fmt.Errorf("invalid status %q", status)
	}
	return devicecache.Entry{Value: value, Status: status}, nil
}

// PostDeviceReadings handles POST /api/esp32/readings. The batch is validated
// as a whole before any reading is stored.
func (h *Handler) PostDeviceReadings(c *gin.Context) {
	var req deviceReadingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Readings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "readings are required"})
		return
	}
	if len(req.Readings) > maxReadingsPerRequest {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("at most %d readings per request", maxReadingsPerRequest)})
		return
	}

	entries := make([]devicecache.Entry, len(req.Readings))
	for i, r := range req.Readings {
		if !devicecache.ValidCategory(r.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("reading %d: invalid category %q", i, r.Category)})
			return
		}
		if r.SensorID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("reading %d: sensorId is required", i)})
			return
		}
		e, err := entry(r.Value, r.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("reading %d: %v", i, err)})
			return
		}
		entries[i] = e
	}

	for i, r := range req.Readings {
		h.devices.Put(r.Category, r.SensorID, entries[i])
		h.metrics.DeviceReading(string(r.Category))
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": len(req.Readings)})
}

// PostValveStatus handles POST /api/esp32/valve. The object is stored as sent.
func (h *Handler) PostValveStatus(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	status, ok := req["status"].(string)
	if !ok || (status != "open" && status != "closed") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be open or closed"})
		return
	}

	h.devices.SetValve(req)
	h.metrics.DeviceReading("valveStatus")
	c.JSON(http.StatusAccepted, gin.H{"accepted": 1})
}

type waterWeightRequest struct {
	Value  *float64           `json:"value"`
	Status devicecache.Status `json:"status"`
}

// PostWaterWeight handles POST /api/esp32/water-weight.
func (h *Handler) PostWaterWeight(c *gin.Context) {
	var req waterWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	e, err := entry(req.Value, req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.devices.SetWaterWeight(e)
	h.metrics.DeviceReading("waterWeight")
	c.JSON(http.StatusAccepted, gin.H{"accepted": 1})
}
