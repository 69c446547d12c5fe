package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"desal-monitor-backend/internal/model"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: opens a fresh database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.SensorData{}, &model.SensorConfig{}))
	return NewGormStore(db, DefaultThresholds)
}

// clock hands out strictly increasing timestamps so ordering is deterministic.
func clock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

// eachStore runs fn against both implementations.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	t.Run("sqlite", func(t *testing.T) {
		s := newSQLiteStore(t)
		s.now = clock(start)
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore(DefaultThresholds)
		s.now = clock(start)
		fn(t, s)
	})
}

func reading(compartment, interval int, air float64) *model.SensorData {
	humidity, water := 65.0, 22.0
	return &model.SensorData{
		CompartmentID:    &compartment,
		TemperatureAir:   &air,
		HumidityAir:      &humidity,
		TemperatureWater: &water,
		Interval:         &interval,
	}
}

func TestStore_CreateAssignsIdentity(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first := reading(1, 5, 25.1)
		second := reading(1, 5, 25.2)
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, s.Create(ctx, second))

		assert.NotZero(t, first.ID)
		assert.Greater(t, second.ID, first.ID)
		assert.True(t, second.Timestamp.After(first.Timestamp))

		got, err := s.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 25.1, *got.TemperatureAir)
		assert.Equal(t, 1, *got.CompartmentID)

		_, err = s.Get(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ListNewestFirst(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Create(ctx, reading(i%2+1, 5, 25+float64(i))))
		}

		rows, err := s.List(ctx, Criteria{}, 3)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 29.0, *rows[0].TemperatureAir)
		assert.Equal(t, 28.0, *rows[1].TemperatureAir)
		assert.Equal(t, 27.0, *rows[2].TemperatureAir)

		compartment := 2
		rows, err = s.List(ctx, Criteria{CompartmentID: &compartment}, 0)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, 2, *r.CompartmentID)
		}
	})
}

func TestStore_DeleteByCriteria(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, reading(1, 5, 25)))
		require.NoError(t, s.Create(ctx, reading(1, 10, 26)))
		require.NoError(t, s.Create(ctx, reading(2, 5, 27)))
		require.NoError(t, s.Create(ctx, reading(3, 60, 28)))

		interval := 5
		n, err := s.Delete(ctx, Criteria{Interval: &interval})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		compartment := 1
		n, err = s.Delete(ctx, Criteria{CompartmentID: &compartment})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		total, err := s.Count(ctx, Criteria{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		n, err = s.Delete(ctx, Criteria{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		total, err = s.Count(ctx, Criteria{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestStore_Status(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, reading(1, 5, 25)))

		status, err := s.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), status.TotalRecords)
		assert.Equal(t, SeverityOK, status.Status)
		assert.Equal(t, DefaultThresholds.Warning, status.WarningThreshold)
		assert.Equal(t, DefaultThresholds.Critical, status.CriticalThreshold)
		assert.False(t, status.FallbackMode)
	})
}

func TestStore_Stats(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		empty, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, empty.TotalRecords)
		assert.Empty(t, empty.Compartments)
		assert.Nil(t, empty.DateRange.Oldest)

		first := reading(4, 5, 25)
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, s.Create(ctx, reading(2, 5, 26)))
		last := reading(4, 10, 27)
		require.NoError(t, s.Create(ctx, last))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalRecords)
		assert.Equal(t, []int{2, 4}, stats.Compartments)
		require.NotNil(t, stats.DateRange.Oldest)
		assert.True(t, first.Timestamp.Equal(*stats.DateRange.Oldest))
		assert.True(t, last.Timestamp.Equal(*stats.DateRange.Newest))
	})
}

func TestConfigStore_UpsertAndFilter(t *testing.T) {
	stores := map[string]ConfigStore{
		"sqlite": newSQLiteStore(t),
		"memory": NewMemoryStore(DefaultThresholds),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.UpsertSensorConfig(ctx, &model.SensorConfig{
				SensorID: "T2", SensorType: model.SensorTypeWaterTemperature, IsEnabled: true, SortOrder: 2,
			}))
			require.NoError(t, s.UpsertSensorConfig(ctx, &model.SensorConfig{
				SensorID: "RH1", SensorType: model.SensorTypeHumidity, IsEnabled: true, SortOrder: 1,
			}))
			require.NoError(t, s.UpsertSensorConfig(ctx, &model.SensorConfig{
				SensorID: "WL1", SensorType: model.SensorTypeWaterLevel, IsEnabled: false,
			}))

			// Retyping a sensor replaces the previous mapping.
			require.NoError(t, s.UpsertSensorConfig(ctx, &model.SensorConfig{
				SensorID: "T2", SensorType: model.SensorTypeAirTemperature, IsEnabled: true, SortOrder: 2,
			}))

			all, err := s.ListSensorConfigs(ctx, false)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			enabled, err := s.ListSensorConfigs(ctx, true)
			require.NoError(t, err)
			require.Len(t, enabled, 2)
			assert.Equal(t, "RH1", enabled[0].SensorID)
			assert.Equal(t, "T2", enabled[1].SensorID)
			assert.Equal(t, model.SensorTypeAirTemperature, enabled[1].SensorType)

			require.NoError(t, s.DeleteSensorConfig(ctx, "WL1"))
			assert.ErrorIs(t, s.DeleteSensorConfig(ctx, "WL1"), ErrNotFound)
		})
	}
}

func TestMemoryStore_Seed(t *testing.T) {
	s := NewMemoryStore(DefaultThresholds)
	s.Seed(50)

	rows, err := s.List(context.Background(), Criteria{}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 50)
	for _, r := range rows {
		assert.GreaterOrEqual(t, *r.CompartmentID, 1)
		assert.LessOrEqual(t, *r.CompartmentID, 6)
		assert.Contains(t, []int{5, 10, 60}, *r.Interval)
		assert.GreaterOrEqual(t, *r.TemperatureAir, 25.0)
		assert.LessOrEqual(t, *r.TemperatureAir, 35.0)
	}
	assert.True(t, rows[0].Timestamp.After(rows[49].Timestamp))

	// New rows continue the id sequence after the seed.
	record := reading(1, 5, 25)
	require.NoError(t, s.Create(context.Background(), record))
	assert.Equal(t, int64(51), record.ID)

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.UsingMockData)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore(DefaultThresholds)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Create(ctx, reading(1, 5, 25)), context.Canceled)
	_, err := s.List(ctx, Criteria{}, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
