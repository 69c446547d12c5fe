package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"desal-monitor-backend/config"
	"desal-monitor-backend/internal/model"
)

// Open connects to the configured database, retrying with exponential
// backoff until it answers a ping, then runs migrations.
func Open(cfg *config.DatabaseConfig, logLevel string, log zerolog.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(gormLogLevel(logLevel)),
		})
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("driver", cfg.Driver).Msg("Database connection failed")
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to get sql.DB: %w", err))
		}
		if err := sqlDB.Ping(); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("driver", cfg.Driver).Msg("Database ping failed")
			return err
		}
		return nil
	}, backoff.WithMaxRetries(bo, uint64(cfg.ConnectRetries)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info().Str("driver", cfg.Driver).Msg("Running database migrations")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Msg("Database initialization complete")
	return db, nil
}

// Migrate creates or updates the tables used by the dashboard.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.SensorConfig{}, &model.SensorData{}); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.DSN); !strings.HasPrefix(cfg.DSN, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return logger.Info
	case "warn", "warning":
		return logger.Warn
	case "error", "fatal", "panic":
		return logger.Error
	default:
		return logger.Silent
	}
}
