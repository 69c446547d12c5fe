// Package sensorconfig resolves raw device sensor ids to their administrator-assigned type.
package sensorconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"desal-monitor-backend/internal/metrics"
	"desal-monitor-backend/internal/model"
)

// DefaultTTL is how long a fetched mapping is served before it is refreshed.
const DefaultTTL = 5 * time.Second

// ErrConfigFetch wraps any failure to read the mapping from its source.
var ErrConfigFetch = errors.New("sensor config fetch failed")

// Mapping maps a raw sensor id to its logical type. Callers must not modify it.
type Mapping map[string]model.SensorType

// Source reads the persisted mapping rows.
type Source interface {
	ListSensorConfigs(ctx context.Context, enabledOnly bool) ([]model.SensorConfig, error)
}

// Resolver is a read-through cache over a Source. Within the TTL every call
// returns the same Mapping without touching the source; after it, the first
// caller refreshes synchronously while the others wait.
type Resolver struct {
	source  Source
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	mapping   Mapping
	fetchedAt time.Time
}

// NewResolver creates a resolver. A non-positive ttl selects DefaultTTL.
func NewResolver(source Source, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// Resolve returns the current mapping, refreshing it when the cached copy has expired.
// A failed refresh is returned to the caller; an expired mapping is never served.
func (r *Resolver) Resolve(ctx context.Context) (Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.mapping != nil && now.Sub(r.fetchedAt) < r.ttl {
		return r.mapping, nil
	}

	rows, err := r.source.ListSensorConfigs(ctx, true)
	r.metrics.ConfigRefreshed(err)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to refresh sensor config mapping")
		return nil, fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}

	mapping := make(Mapping, len(rows))
	for _, row := range rows {
		mapping[row.SensorID] = row.SensorType
	}
	r.mapping = mapping
	r.fetchedAt = now
	r.logger.Debug().Int("sensors", len(mapping)).Msg("Sensor config mapping refreshed")
	return mapping, nil
}

// Invalidate drops the cached mapping so the next Resolve refetches.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapping = nil
	r.fetchedAt = time.Time{}
}
