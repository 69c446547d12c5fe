package db

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"desal-monitor-backend/config"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:                 "sqlite",
		DSN:                    filepath.Join(t.TempDir(), "nested", "desal.db"),
		MaxOpenConns:           1,
		MaxIdleConns:           1,
		ConnMaxLifetimeMinutes: 1,
		ConnectRetries:         1,
	}

	db, err := Open(cfg, "info", zerolog.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.True(t, db.Migrator().HasTable("sensor_data"))
	assert.True(t, db.Migrator().HasTable("sensor_configs"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "mysql", DSN: "x"}, "info", zerolog.Nop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestGormLogLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected logger.LogLevel
	}{
		{"debug", logger.Info},
		{"WARN", logger.Warn},
		{"error", logger.Error},
		{"info", logger.Silent},
		{"", logger.Silent},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, gormLogLevel(tc.level), tc.level)
	}
}
