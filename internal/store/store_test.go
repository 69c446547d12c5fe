package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"desal-monitor-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestGormStore_Create(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, DefaultThresholds)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sensor_data"`)).
		WithArgs(2, nil, nil, 27.5, 65.3, 22.8, nil, nil, 5, fixed, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	record := &model.SensorData{
		ID:               99, // ignored, the store assigns ids
		CompartmentID:    intPtr(2),
		TemperatureAir:   floatPtr(27.5),
		HumidityAir:      floatPtr(65.3),
		TemperatureWater: floatPtr(22.8),
		Interval:         intPtr(5),
	}
	require.NoError(t, s.Create(context.Background(), record))
	assert.Equal(t, int64(42), record.ID)
	assert.Equal(t, fixed, record.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Delete(t *testing.T) {
	testCases := []struct {
		name     string
		criteria Criteria
		query    string
		args     []driver.Value
		affected int64
	}{
		{
			name:     "by compartment",
			criteria: Criteria{CompartmentID: intPtr(3)},
			query:    `DELETE FROM "sensor_data" WHERE "compartment_id" = $1`,
			args:     []driver.Value{3},
			affected: 12,
		},
		{
			name:     "by interval",
			criteria: Criteria{Interval: intPtr(5)},
			query:    `DELETE FROM "sensor_data" WHERE "interval" = $1`,
			args:     []driver.Value{5},
			affected: 4,
		},
		{
			name:     "by sensor ids for an owner",
			criteria: Criteria{SensorIDs: []string{"T1", "T8"}, OwnerID: int64Ptr(7)},
			query:    `DELETE FROM "sensor_data" WHERE "sensor_id" IN ($1,$2) AND "user_id" = $3`,
			args:     []driver.Value{"T1", "T8", 7},
			affected: 2,
		},
		{
			name:     "everything",
			criteria: Criteria{},
			query:    `DELETE FROM "sensor_data"`,
			affected: 50,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, DefaultThresholds)

			mock.ExpectBegin()
			exec := mock.ExpectExec(regexp.QuoteMeta(tc.query))
			if len(tc.args) > 0 {
				exec = exec.WithArgs(tc.args...)
			}
			exec.WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			n, err := s.Delete(context.Background(), tc.criteria)
			require.NoError(t, err)
			assert.Equal(t, tc.affected, n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_List(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, DefaultThresholds)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "sensor_data" WHERE "compartment_id" = \$1 ORDER BY "timestamp" DESC,\s*"id" DESC LIMIT \$2`).
		WithArgs(1, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "compartment_id", "temperature_air", "timestamp"}).
			AddRow(2, 1, 26.1, now).
			AddRow(1, 1, 25.4, now.Add(-time.Minute)))

	rows, err := s.List(context.Background(), Criteria{CompartmentID: intPtr(1)}, 20)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].ID)
	assert.Equal(t, 26.1, *rows[0].TemperatureAir)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Status(t *testing.T) {
	t.Run("size available", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB, Thresholds{Warning: 10, Critical: 20})

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sensor_data"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT pg_total_relation_size('sensor_data')`)).
			WillReturnRows(sqlmock.NewRows([]string{"size"}).AddRow(3 * 1024 * 1024))

		status, err := s.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(15), status.TotalRecords)
		assert.Equal(t, SeverityWarning, status.Status)
		assert.Equal(t, 3.0, status.TableSizeMB)
		assert.False(t, status.FallbackMode)
		assert.False(t, status.UsingMockData)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("size query fails", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB, DefaultThresholds)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sensor_data"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT pg_total_relation_size('sensor_data')`)).
			WillReturnError(errors.New("permission denied"))

		status, err := s.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SeverityOK, status.Status)
		assert.True(t, status.FallbackMode)
		assert.Zero(t, status.TableSizeMB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count fails", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB, DefaultThresholds)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sensor_data"`)).
			WillReturnError(errors.New("connection refused"))

		_, err := s.Status(context.Background())
		assert.Error(t, err)
	})
}

func TestGormStore_DeleteSensorConfigNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, DefaultThresholds)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "sensor_configs" WHERE sensor_id = $1`)).
		WithArgs("RH9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.DeleteSensorConfig(context.Background(), "RH9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThresholds_Classify(t *testing.T) {
	testCases := []struct {
		total    int64
		expected Severity
	}{
		{total: 0, expected: SeverityOK},
		{total: 99999, expected: SeverityOK},
		{total: 100000, expected: SeverityWarning},
		{total: 499999, expected: SeverityWarning},
		{total: 500000, expected: SeverityCritical},
	}

	for _, tc := range testCases {
		severity, message := DefaultThresholds.Classify(tc.total)
		assert.Equal(t, tc.expected, severity, "total %d", tc.total)
		assert.NotEmpty(t, message)
	}
}
