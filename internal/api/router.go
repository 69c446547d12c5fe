package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"desal-monitor-backend/config"
	"desal-monitor-backend/internal/mw"
)

// DeviceIDHeader identifies an ESP32 board to the device rate limiter.
const DeviceIDHeader = "X-Device-ID"

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, d Deps, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(d.Log))
	if cfg.Server.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.Server.RequestIPHeader
	}

	responseCache := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)
	caching := responseCache.Handler()
	handler := NewHandler(d, cfg.Logger.Compartments, responseCache)

	r.GET("/healthz", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.Use(mw.Identify())

	// ESP32 boards post on their own budget so a chatty board cannot starve the dashboard.
	device := api.Group("/esp32")
	device.Use(mw.RateLimiter(rate.Limit(cfg.Server.DeviceRateLimitPerSec), cfg.Server.DeviceRateLimitBurst, mw.HeaderOrIP(DeviceIDHeader)))
	{
		device.POST("/readings", handler.PostDeviceReadings)
		device.POST("/valve", handler.PostValveStatus)
		device.POST("/water-weight", handler.PostWaterWeight)
	}

	dashboard := api.Group("")
	dashboard.Use(mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, mw.ClientIP))
	{
		dashboard.GET("/", Index)
		dashboard.GET("/realtime-data", handler.GetRealtimeData)

		dashboard.GET("/logger/status", handler.GetLoggerStatus)
		dashboard.POST("/logger/start", mw.RequireAdmin(), handler.StartLogger)
		dashboard.POST("/logger/stop", mw.RequireAdmin(), handler.StopLogger)
		dashboard.POST("/logger/config", mw.RequireAdmin(), handler.ConfigureLogger)

		dashboard.GET("/database/status", handler.GetDatabaseStatus)
		dashboard.GET("/stats", handler.GetStats)

		dashboard.GET("/sensors", handler.ListSensorData)
		dashboard.POST("/sensors", handler.CreateSensorData)
		dashboard.DELETE("/sensors/compartment/:compartment", handler.DeleteByCompartment)
		dashboard.DELETE("/sensors/interval/:interval", handler.DeleteByInterval)
		dashboard.DELETE("/sensors/:id", handler.DeleteSensorData)
		dashboard.DELETE("/sensors", handler.DeleteAllSensorData)

		dashboard.GET("/sensor-config", caching, handler.ListSensorConfigs)
		dashboard.PUT("/sensor-config/:sensor_id", mw.RequireAdmin(), handler.PutSensorConfig)
		dashboard.DELETE("/sensor-config/:sensor_id", mw.RequireAdmin(), handler.DeleteSensorConfig)
	}

	return r
}

// Index handles GET /api/ with a short endpoint listing.
func Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "ESP32 IoT Data Logger API",
		"version":   "1.0",
		"endpoints": []string{
			"GET /api/realtime-data: Latest device readings grouped by sensor type",
			"GET /api/database/status: Database size and warnings",
			"GET /api/stats: Record count, compartments and date range",
			"GET /api/sensors: Sensor data (limit, compartment, sensor_id, sensor_type, startDate, endDate)",
			"POST /api/sensors: Create sensor data",
			"DELETE /api/sensors/:id: Delete a single row",
			"DELETE /api/sensors: Delete all rows, or those matching sensor_type / sensor_id",
			"DELETE /api/sensors/compartment/:compartment: Delete rows of one compartment",
			"DELETE /api/sensors/interval/:interval: Delete rows logged at an interval (seconds)",
			"GET /api/logger/status: Background logger status",
			"POST /api/logger/start: Start the background logger",
			"POST /api/logger/stop: Stop the background logger",
			`POST /api/logger/config: Set the logger interval (body: {"interval": 5000})`,
			"GET /api/sensor-config: Sensor type mappings",
			"PUT /api/sensor-config/:sensor_id: Assign a sensor type",
			"DELETE /api/sensor-config/:sensor_id: Remove a sensor type mapping",
			"POST /api/esp32/readings: Device readings",
			"POST /api/esp32/valve: Valve status",
			"POST /api/esp32/water-weight: Cumulative water weight",
		},
	})
}
