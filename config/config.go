package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Logger       LoggerConfig       `yaml:"logger"`
	SensorConfig SensorConfigConfig `yaml:"sensor_config"`
	Status       StatusConfig       `yaml:"status"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                  int     `yaml:"port"`
	RequestIPHeader       string  `yaml:"request_ip_header"`
	RateLimitPerSec       float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst        int     `yaml:"rate_limit_burst"`
	DeviceRateLimitPerSec float64 `yaml:"device_rate_limit_per_sec"`
	DeviceRateLimitBurst  int     `yaml:"device_rate_limit_burst"`
	CacheTTLSeconds       int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	ConnectRetries         int    `yaml:"connect_retries"`
	UseMockData            bool   `yaml:"use_mock_data"`
	MockSampleRecords      int    `yaml:"mock_sample_records"`
}

// LoggerConfig holds the background data logger configuration.
type LoggerConfig struct {
	IntervalMs   int  `yaml:"interval_ms"`
	Compartments int  `yaml:"compartments"`
	Autostart    bool `yaml:"autostart"`
}

// SensorConfigConfig holds the sensor type mapping cache settings.
type SensorConfigConfig struct {
	CacheTTLMs         int `yaml:"cache_ttl_ms"`
	BreakerFailures    int `yaml:"breaker_failures"`
	BreakerOpenSeconds int `yaml:"breaker_open_seconds"`
}

// StatusConfig holds the record-count thresholds reported by the database status endpoint.
type StatusConfig struct {
	WarningThreshold  int64 `yaml:"warning_threshold"`
	CriticalThreshold int64 `yaml:"critical_threshold"`
}

// LogConfig holds the operational log settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Interval returns the default logging period.
func (c LoggerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// CacheTTL returns the sensor type mapping cache lifetime.
func (c SensorConfigConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	cfg.OverrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 20
	}
	if c.Server.DeviceRateLimitPerSec <= 0 {
		c.Server.DeviceRateLimitPerSec = 2
	}
	if c.Server.DeviceRateLimitBurst <= 0 {
		c.Server.DeviceRateLimitBurst = 10
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "./data/iot_desalinasi.db"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeMinutes <= 0 {
		c.Database.ConnMaxLifetimeMinutes = 30
	}
	if c.Database.ConnectRetries <= 0 {
		c.Database.ConnectRetries = 5
	}
	if c.Database.MockSampleRecords < 0 {
		c.Database.MockSampleRecords = 0
	}

	if c.Logger.IntervalMs <= 0 {
		c.Logger.IntervalMs = 5000
	}
	if c.Logger.Compartments <= 0 {
		c.Logger.Compartments = 6
	}

	if c.SensorConfig.CacheTTLMs <= 0 {
		c.SensorConfig.CacheTTLMs = 5000
	}
	if c.SensorConfig.BreakerFailures <= 0 {
		c.SensorConfig.BreakerFailures = 5
	}
	if c.SensorConfig.BreakerOpenSeconds <= 0 {
		c.SensorConfig.BreakerOpenSeconds = 10
	}

	if c.Status.WarningThreshold <= 0 {
		c.Status.WarningThreshold = 100000
	}
	if c.Status.CriticalThreshold <= 0 {
		c.Status.CriticalThreshold = 500000
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// OverrideFromEnv overrides selected fields from environment variables.
func (c *Config) OverrideFromEnv() {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("USE_MOCK_DATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Database.UseMockData = b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Database.UseMockData {
		switch c.Database.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
		}
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required when use_mock_data is false")
		}
	}
	if c.Status.WarningThreshold >= c.Status.CriticalThreshold {
		return fmt.Errorf("status.warning_threshold (%d) must be below status.critical_threshold (%d)",
			c.Status.WarningThreshold, c.Status.CriticalThreshold)
	}
	return nil
}
