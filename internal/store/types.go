package store

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"desal-monitor-backend/internal/model"
)

// ErrNotFound is returned when a lookup or targeted delete matches nothing.
var ErrNotFound = errors.New("record not found")

// Criteria selects sensor data rows. Zero-valued fields do not filter.
type Criteria struct {
	ID            *int64
	CompartmentID *int
	SensorIDs     []string
	SensorType    string
	Interval      *int
	Start         *time.Time
	End           *time.Time
	OwnerID       *int64
}

// IsEmpty reports whether the criteria select every row.
func (c Criteria) IsEmpty() bool {
	return c.ID == nil && c.CompartmentID == nil && len(c.SensorIDs) == 0 && c.SensorType == "" &&
		c.Interval == nil && c.Start == nil && c.End == nil && c.OwnerID == nil
}

// Matches evaluates the criteria against a single row.
func (c Criteria) Matches(r *model.SensorData) bool {
	if c.ID != nil && r.ID != *c.ID {
		return false
	}
	if c.CompartmentID != nil && (r.CompartmentID == nil || *r.CompartmentID != *c.CompartmentID) {
		return false
	}
	if len(c.SensorIDs) > 0 && (r.SensorID == nil || !slices.Contains(c.SensorIDs, *r.SensorID)) {
		return false
	}
	if c.SensorType != "" && (r.SensorType == nil || *r.SensorType != c.SensorType) {
		return false
	}
	if c.Interval != nil && (r.Interval == nil || *r.Interval != *c.Interval) {
		return false
	}
	if c.Start != nil && r.Timestamp.Before(*c.Start) {
		return false
	}
	if c.End != nil && r.Timestamp.After(*c.End) {
		return false
	}
	if c.OwnerID != nil && (r.UserID == nil || *r.UserID != *c.OwnerID) {
		return false
	}
	return true
}

// Severity classifies how full the sensor data table is.
type Severity string

const (
	SeverityOK       Severity = "OK"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Thresholds are the record counts at which the status escalates.
type Thresholds struct {
	Warning  int64
	Critical int64
}

// DefaultThresholds mirrors the dashboard's built-in limits.
var DefaultThresholds = Thresholds{Warning: 100000, Critical: 500000}

// Classify maps a record count to a severity and an operator-facing message.
func (t Thresholds) Classify(total int64) (Severity, string) {
	switch {
	case total >= t.Critical:
		return SeverityCritical, fmt.Sprintf("Database almost full: %d records. Delete old data now.", total)
	case total >= t.Warning:
		return SeverityWarning, fmt.Sprintf("Database holds %d records. Consider deleting old data.", total)
	default:
		return SeverityOK, "Database is healthy"
	}
}

// DatabaseStatus summarises the size of the telemetry store.
type DatabaseStatus struct {
	TotalRecords      int64    `json:"total_records"`
	TableSizeMB       float64  `json:"table_size_mb"`
	Status            Severity `json:"status"`
	Message           string   `json:"message"`
	WarningThreshold  int64    `json:"warning_threshold"`
	CriticalThreshold int64    `json:"critical_threshold"`
	UsingMockData     bool     `json:"using_mock_data"`
	FallbackMode      bool     `json:"fallback_mode,omitempty"`
}

func newStatus(total int64, sizeBytes float64, t Thresholds) *DatabaseStatus {
	severity, message := t.Classify(total)
	return &DatabaseStatus{
		TotalRecords:      total,
		TableSizeMB:       float64(int64(sizeBytes/1024/1024*100)) / 100,
		Status:            severity,
		Message:           message,
		WarningThreshold:  t.Warning,
		CriticalThreshold: t.Critical,
	}
}

// DateRange spans the stored timestamps. Both ends are nil when the store is empty.
type DateRange struct {
	Oldest *time.Time `json:"oldest"`
	Newest *time.Time `json:"newest"`
}

// Stats summarises what is stored.
type Stats struct {
	TotalRecords int64     `json:"totalRecords"`
	Compartments []int     `json:"compartments"`
	DateRange    DateRange `json:"dateRange"`
}
