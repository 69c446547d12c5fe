package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"desal-monitor-backend/internal/datalogger"
	"desal-monitor-backend/internal/devicecache"
	"desal-monitor-backend/internal/metrics"
	"desal-monitor-backend/internal/mw"
	"desal-monitor-backend/internal/sensorconfig"
	"desal-monitor-backend/internal/store"
)

// Resolver yields the current sensor type mapping.
type Resolver interface {
	Resolve(ctx context.Context) (sensorconfig.Mapping, error)
	Invalidate()
}

// DataLogger is the background logger's control surface.
type DataLogger interface {
	Start() datalogger.Status
	Stop() datalogger.Status
	SetInterval(d time.Duration) (datalogger.Status, error)
	Status() datalogger.Status
}

// Deps are the collaborators the handlers are built from.
type Deps struct {
	Store    store.Store
	Configs  store.ConfigStore
	Resolver Resolver
	Devices  *devicecache.Cache
	Logger   DataLogger
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
	MockData bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	configs      store.ConfigStore
	resolver     Resolver
	devices      *devicecache.Cache
	logger       DataLogger
	metrics      *metrics.Metrics
	log          zerolog.Logger
	cache        *mw.ResponseCache
	compartments int
	mockData     bool
	now          func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps, compartments int, cache *mw.ResponseCache) *Handler {
	return &Handler{
		store:        d.Store,
		configs:      d.Configs,
		resolver:     d.Resolver,
		devices:      d.Devices,
		logger:       d.Logger,
		metrics:      d.Metrics,
		log:          d.Log,
		cache:        cache,
		compartments: compartments,
		mockData:     d.MockData,
		now:          time.Now,
	}
}

// internalError logs err and answers with a generic 500.
func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// purge drops cached responses that a write may have made stale.
func (h *Handler) purge(prefixes ...string) {
	if h.cache == nil {
		return
	}
	for _, p := range prefixes {
		h.cache.Purge(p)
	}
}

// Health reports liveness together with the logger state.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"logger":    h.logger.Status(),
		"mock_data": h.mockData,
	})
}
