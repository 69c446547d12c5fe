package model

import "time"

// SensorData is one persisted telemetry row. Rows are never updated in place.
type SensorData struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CompartmentID    *int      `gorm:"index" json:"compartment_id"`
	SensorID         *string   `gorm:"size:64;index" json:"sensor_id,omitempty"`
	SensorType       *string   `gorm:"size:32;index" json:"sensor_type,omitempty"`
	TemperatureAir   *float64  `json:"temperature_air"`
	HumidityAir      *float64  `json:"humidity_air"`
	TemperatureWater *float64  `json:"temperature_water"`
	Value            *float64  `json:"value,omitempty"`
	Unit             *string   `gorm:"size:16" json:"unit,omitempty"`
	Interval         *int      `gorm:"index" json:"interval"`
	Timestamp        time.Time `gorm:"not null;index" json:"timestamp"`
	UserID           *int64    `gorm:"index" json:"user_id,omitempty"`
}

// TableName pins the table name used by the dashboard exports.
func (SensorData) TableName() string {
	return "sensor_data"
}
