package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"desal-monitor-backend/internal/model"
)

// Compile-time interface checks
var (
	_ Store       = (*GormStore)(nil)
	_ ConfigStore = (*GormStore)(nil)
)

// GormStore implements Store and ConfigStore using GORM.
type GormStore struct {
	db         *gorm.DB
	thresholds Thresholds
	now        func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, thresholds Thresholds) *GormStore {
	return &GormStore{db: db, thresholds: thresholds, now: time.Now}
}

func col(name string) clause.Column {
	return clause.Column{Name: name}
}

// filter translates criteria into quoted conditions; "interval" and "timestamp" are SQL keywords.
func filter(c Criteria) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if c.ID != nil {
			tx = tx.Where(clause.Eq{Column: col("id"), Value: *c.ID})
		}
		if c.CompartmentID != nil {
			tx = tx.Where(clause.Eq{Column: col("compartment_id"), Value: *c.CompartmentID})
		}
		if len(c.SensorIDs) > 0 {
			values := make([]interface{}, len(c.SensorIDs))
			for i, id := range c.SensorIDs {
				values[i] = id
			}
			tx = tx.Where(clause.IN{Column: col("sensor_id"), Values: values})
		}
		if c.SensorType != "" {
			tx = tx.Where(clause.Eq{Column: col("sensor_type"), Value: c.SensorType})
		}
		if c.Interval != nil {
			tx = tx.Where(clause.Eq{Column: col("interval"), Value: *c.Interval})
		}
		if c.Start != nil {
			tx = tx.Where(clause.Gte{Column: col("timestamp"), Value: *c.Start})
		}
		if c.End != nil {
			tx = tx.Where(clause.Lte{Column: col("timestamp"), Value: *c.End})
		}
		if c.OwnerID != nil {
			tx = tx.Where(clause.Eq{Column: col("user_id"), Value: *c.OwnerID})
		}
		return tx
	}
}

// Create persists a new row. The id and timestamp are always assigned here.
func (s *GormStore) Create(ctx context.Context, record *model.SensorData) error {
	record.ID = 0
	record.Timestamp = s.now().UTC()
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create sensor data: %w", err)
	}
	return nil
}

// List returns matching rows, newest first. A non-positive limit returns every row.
func (s *GormStore) List(ctx context.Context, criteria Criteria, limit int) ([]model.SensorData, error) {
	var rows []model.SensorData
	tx := s.db.WithContext(ctx).
		Scopes(filter(criteria)).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: col("timestamp"), Desc: true},
			{Column: col("id"), Desc: true},
		}})
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sensor data: %w", err)
	}
	return rows, nil
}

// Get returns a single row by id.
func (s *GormStore) Get(ctx context.Context, id int64) (*model.SensorData, error) {
	var row model.SensorData
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sensor data %d: %w", id, err)
	}
	return &row, nil
}

// Delete removes matching rows and returns how many were removed.
func (s *GormStore) Delete(ctx context.Context, criteria Criteria) (int64, error) {
	tx := s.db.WithContext(ctx)
	if criteria.IsEmpty() {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	} else {
		tx = tx.Scopes(filter(criteria))
	}
	res := tx.Delete(&model.SensorData{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete sensor data: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the number of matching rows.
func (s *GormStore) Count(ctx context.Context, criteria Criteria) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.SensorData{}).Scopes(filter(criteria)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count sensor data: %w", err)
	}
	return n, nil
}

// Status reports the row count and table size. When the size query is not
// supported the count alone is reported in fallback mode.
func (s *GormStore) Status(ctx context.Context) (*DatabaseStatus, error) {
	total, err := s.Count(ctx, Criteria{})
	if err != nil {
		return nil, err
	}

	size, err := s.tableSize(ctx)
	status := newStatus(total, size, s.thresholds)
	if err != nil {
		status.FallbackMode = true
	}
	return status, nil
}

// Stats reports the row count, the compartments present and the time span covered.
func (s *GormStore) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.Count(ctx, Criteria{})
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalRecords: total, Compartments: []int{}}

	err = s.db.WithContext(ctx).Model(&model.SensorData{}).
		Where("compartment_id IS NOT NULL").
		Distinct().
		Order("compartment_id").
		Pluck("compartment_id", &stats.Compartments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list compartments: %w", err)
	}
	if total == 0 {
		return stats, nil
	}

	var oldest, newest model.SensorData
	if err := s.db.WithContext(ctx).Order(clause.OrderByColumn{Column: col("timestamp")}).First(&oldest).Error; err != nil {
		return nil, fmt.Errorf("failed to find oldest sensor data: %w", err)
	}
	if err := s.db.WithContext(ctx).Order(clause.OrderByColumn{Column: col("timestamp"), Desc: true}).First(&newest).Error; err != nil {
		return nil, fmt.Errorf("failed to find newest sensor data: %w", err)
	}
	stats.DateRange = DateRange{Oldest: &oldest.Timestamp, Newest: &newest.Timestamp}
	return stats, nil
}

func (s *GormStore) tableSize(ctx context.Context) (float64, error) {
	var size float64
	var query string
	switch s.db.Dialector.Name() {
	case "postgres":
		query = "SELECT pg_total_relation_size('sensor_data')"
	case "sqlite":
		query = "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
	default:
		return 0, fmt.Errorf("table size not supported for dialect %q", s.db.Dialector.Name())
	}
	if err := s.db.WithContext(ctx).Raw(query).Scan(&size).Error; err != nil {
		return 0, fmt.Errorf("failed to query table size: %w", err)
	}
	return size, nil
}

// ListSensorConfigs returns mappings ordered for display.
func (s *GormStore) ListSensorConfigs(ctx context.Context, enabledOnly bool) ([]model.SensorConfig, error) {
	var rows []model.SensorConfig
	tx := s.db.WithContext(ctx).Order("sort_order, sensor_id")
	if enabledOnly {
		tx = tx.Where("is_enabled = ?", true)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sensor configs: %w", err)
	}
	return rows, nil
}

// UpsertSensorConfig writes a mapping; the last write for a sensor id wins.
func (s *GormStore) UpsertSensorConfig(ctx context.Context, cfg *model.SensorConfig) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sensor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sensor_type", "display_name", "is_enabled", "sort_order", "updated_at"}),
	}).Create(cfg).Error
	if err != nil {
		return fmt.Errorf("failed to upsert sensor config %q: %w", cfg.SensorID, err)
	}
	return nil
}

// DeleteSensorConfig removes the mapping for a sensor id.
func (s *GormStore) DeleteSensorConfig(ctx context.Context, sensorID string) error {
	res := s.db.WithContext(ctx).Where("sensor_id = ?", sensorID).Delete(&model.SensorConfig{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete sensor config %q: %w", sensorID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
