package sensorconfig

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"desal-monitor-backend/internal/model"
)

// BreakerSource guards a Source with a circuit breaker so a failing config
// store is not queried on every dashboard poll.
type BreakerSource struct {
	source Source
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerSource trips after the given number of consecutive failures and
// stays open for openFor before letting a probe through.
func NewBreakerSource(source Source, failures uint32, openFor time.Duration, logger zerolog.Logger) *BreakerSource {
	return &BreakerSource{
		source: source,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "sensor-config",
			Timeout: openFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			// A caller that went away says nothing about the store.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			},
		}),
	}
}

// ListSensorConfigs reads through the breaker. While open it fails fast with gobreaker.ErrOpenState.
func (b *BreakerSource) ListSensorConfigs(ctx context.Context, enabledOnly bool) ([]model.SensorConfig, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.source.ListSensorConfigs(ctx, enabledOnly)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.SensorConfig), nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}
