// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LoggerCycles        prometheus.Counter
	LoggerCycleFailures prometheus.Counter
	LoggerRunning       prometheus.Gauge
	RecordsPersisted    prometheus.Counter
	Aggregations        prometheus.Counter
	ConfigRefreshes     *prometheus.CounterVec
	DeviceReadings      *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoggerCycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: "desal",
			Name:      "logger_cycles_total",
			Help:      "Completed background logging cycles.",
		}),
		LoggerCycleFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "desal",
			Name:      "logger_cycle_failures_total",
			Help:      "Logging cycles aborted by a persist error.",
		}),
		LoggerRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "desal",
			Name:      "logger_running",
			Help:      "1 while the background logger is running.",
		}),
		RecordsPersisted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "desal",
			Name:      "logger_records_persisted_total",
			Help:      "Rows written by the background logger.",
		}),
		Aggregations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "desal",
			Name:      "realtime_aggregations_total",
			Help:      "Realtime snapshots served.",
		}),
		ConfigRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desal",
			Name:      "sensor_config_refreshes_total",
			Help:      "Sensor type mapping refreshes by result.",
		}, []string{"result"}),
		DeviceReadings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desal",
			Name:      "device_readings_total",
			Help:      "Device readings accepted into the cache by category.",
		}, []string{"category"}),
	}
}

// CycleCompleted records a finished logger cycle and the rows it wrote.
func (m *Metrics) CycleCompleted(records int) {
	if m == nil {
		return
	}
	m.LoggerCycles.Inc()
	m.RecordsPersisted.Add(float64(records))
}

// CycleFailed records an aborted cycle; rows written before the failure still count as persisted.
func (m *Metrics) CycleFailed(records int) {
	if m == nil {
		return
	}
	m.LoggerCycleFailures.Inc()
	m.RecordsPersisted.Add(float64(records))
}

// SetLoggerRunning sets the logger state gauge to 1 or 0.
func (m *Metrics) SetLoggerRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.LoggerRunning.Set(1)
	} else {
		m.LoggerRunning.Set(0)
	}
}

// AggregationServed counts one realtime snapshot returned to a client.
func (m *Metrics) AggregationServed() {
	if m == nil {
		return
	}
	m.Aggregations.Inc()
}

// ConfigRefreshed counts a mapping refresh, labelled ok or error.
func (m *Metrics) ConfigRefreshed(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ConfigRefreshes.WithLabelValues(result).Inc()
}

// DeviceReading counts a device reading accepted for the given category.
func (m *Metrics) DeviceReading(category string) {
	if m == nil {
		return
	}
	m.DeviceReadings.WithLabelValues(category).Inc()
}
