package model

import "time"

// SensorConfig maps a raw device sensor id to its logical type.
type SensorConfig struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	SensorID    string     `gorm:"uniqueIndex;size:64;not null" json:"sensorId"`
	SensorType  SensorType `gorm:"size:32;not null;index" json:"sensorType"`
	DisplayName string     `gorm:"size:128" json:"displayName,omitempty"`
	IsEnabled   bool       `gorm:"not null" json:"isEnabled"`
	SortOrder   int        `gorm:"not null;default:0" json:"sortOrder"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
