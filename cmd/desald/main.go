package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"desal-monitor-backend/config"
	"desal-monitor-backend/internal/api"
	"desal-monitor-backend/internal/datalogger"
	"desal-monitor-backend/internal/db"
	"desal-monitor-backend/internal/devicecache"
	"desal-monitor-backend/internal/metrics"
	"desal-monitor-backend/internal/sensorconfig"
	"desal-monitor-backend/internal/store"
)

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "desald").Logger()
}

// openStores returns the sensor data store and the config store selected by the configuration.
func openStores(cfg *config.Config, logger zerolog.Logger) (store.Store, store.ConfigStore, error) {
	thresholds := store.Thresholds{Warning: cfg.Status.WarningThreshold, Critical: cfg.Status.CriticalThreshold}

	if cfg.Database.UseMockData {
		mem := store.NewMemoryStore(thresholds)
		mem.Seed(cfg.Database.MockSampleRecords)
		logger.Info().Int("sample_records", cfg.Database.MockSampleRecords).Msg("Using in-memory mock data store")
		return mem, mem, nil
	}

	gormDB, err := db.Open(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, err
	}
	gs := store.NewGormStore(gormDB, thresholds)
	return gs, gs, nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	logger.Info().Str("path", configPath).Msg("Configuration loaded")
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	dataStore, configStore, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize data store")
	}

	source := sensorconfig.NewBreakerSource(
		configStore,
		uint32(cfg.SensorConfig.BreakerFailures),
		time.Duration(cfg.SensorConfig.BreakerOpenSeconds)*time.Second,
		logger,
	)
	resolver := sensorconfig.NewResolver(source, cfg.SensorConfig.CacheTTL(), logger, m)

	dataLogger := datalogger.New(dataStore, datalogger.Options{
		Interval:     cfg.Logger.Interval(),
		Compartments: cfg.Logger.Compartments,
		Metrics:      m,
	}, logger)
	if cfg.Logger.Autostart {
		dataLogger.Start()
	}

	router := api.NewRouter(cfg, api.Deps{
		Store:    dataStore,
		Configs:  configStore,
		Resolver: resolver,
		Devices:  devicecache.New(),
		Logger:   dataLogger,
		Metrics:  m,
		Log:      logger,
		MockData: cfg.Database.UseMockData,
	}, registry)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("Shutdown signal received, stopping services")

	dataLogger.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("Server gracefully stopped")
}
