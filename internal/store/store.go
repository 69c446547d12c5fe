package store

import (
	"context"

	"desal-monitor-backend/internal/model"
)

// Store defines the persistence operations for sensor data rows.
// The relational and in-memory implementations are interchangeable.
type Store interface {
	Create(ctx context.Context, record *model.SensorData) error
	List(ctx context.Context, criteria Criteria, limit int) ([]model.SensorData, error)
	Get(ctx context.Context, id int64) (*model.SensorData, error)
	Delete(ctx context.Context, criteria Criteria) (int64, error)
	Count(ctx context.Context, criteria Criteria) (int64, error)
	Status(ctx context.Context) (*DatabaseStatus, error)
	Stats(ctx context.Context) (*Stats, error)
}

// ConfigStore holds the administrator-owned sensor type mappings.
type ConfigStore interface {
	ListSensorConfigs(ctx context.Context, enabledOnly bool) ([]model.SensorConfig, error)
	UpsertSensorConfig(ctx context.Context, cfg *model.SensorConfig) error
	DeleteSensorConfig(ctx context.Context, sensorID string) error
}
