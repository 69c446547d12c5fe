// Package devicecache holds the latest reading per raw device sensor id.
package devicecache

import (
	"maps"
	"sync"
)

// Category names the channel a reading arrived on.
type Category string

const (
	CategoryHumidity    Category = "humidity"
	CategoryTemperature Category = "temperature"
	CategoryWaterLevel  Category = "waterLevel"
	CategorySensors     Category = "sensors"
)

// Status is the liveness reported with a reading.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Entry is the last value seen for one sensor.
type Entry struct {
	Value  *float64 `json:"value"`
	Status Status   `json:"status"`
}

// Active reports whether the sensor is currently reporting.
func (e Entry) Active() bool {
	return e.Status == StatusActive
}

func (e Entry) clone() Entry {
	if e.Value != nil {
		v := *e.Value
		e.Value = &v
	}
	return e
}

// Snapshot is a point-in-time copy of the cache. Any field may be nil.
type Snapshot struct {
	Humidity    map[string]Entry
	Temperature map[string]Entry
	WaterLevel  map[string]Entry
	Sensors     map[string]Entry
	Valve       map[string]any
	WaterWeight *Entry
}

// Category returns the entries for c, or nil.
func (s *Snapshot) Category(c Category) map[string]Entry {
	if s == nil {
		return nil
	}
	switch c {
	case CategoryHumidity:
		return s.Humidity
	case CategoryTemperature:
		return s.Temperature
	case CategoryWaterLevel:
		return s.WaterLevel
	case CategorySensors:
		return s.Sensors
	}
	return nil
}

// Cache is safe for concurrent use. Later writes for the same sensor replace earlier ones.
type Cache struct {
	mu          sync.RWMutex
	categories  map[Category]map[string]Entry
	valve       map[string]any
	waterWeight *Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{categories: make(map[Category]map[string]Entry)}
}

// ValidCategory reports whether c is one of the per-sensor categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryHumidity, CategoryTemperature, CategoryWaterLevel, CategorySensors:
		return true
	}
	return false
}

// Put records the latest reading for a sensor in a category.
func (c *Cache) Put(category Category, sensorID string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.categories[category]
	if !ok {
		m = make(map[string]Entry)
		c.categories[category] = m
	}
	m[sensorID] = e.clone()
}

// SetValve replaces the valve status object.
func (c *Cache) SetValve(status map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valve = maps.Clone(status)
}

// SetWaterWeight replaces the cumulative water weight reading.
func (c *Cache) SetWaterWeight(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e = e.clone()
	c.waterWeight = &e
}

// Snapshot returns a copy that later writes do not affect.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Humidity:    cloneEntries(c.categories[CategoryHumidity]),
		Temperature: cloneEntries(c.categories[CategoryTemperature]),
		WaterLevel:  cloneEntries(c.categories[CategoryWaterLevel]),
		Sensors:     cloneEntries(c.categories[CategorySensors]),
		Valve:       maps.Clone(c.valve),
	}
	if c.waterWeight != nil {
		w := c.waterWeight.clone()
		snap.WaterWeight = &w
	}
	return snap
}

func cloneEntries(src map[string]Entry) map[string]Entry {
	if src == nil {
		return nil
	}
	out := make(map[string]Entry, len(src))
	for id, e := range src {
		out[id] = e.clone()
	}
	return out
}
