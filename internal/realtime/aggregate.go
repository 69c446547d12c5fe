// Package realtime builds the dashboard's per-type view of live device readings.
package realtime

import (
	"maps"
	"time"

	"desal-monitor-backend/internal/devicecache"
	"desal-monitor-backend/internal/model"
	"desal-monitor-backend/internal/sensorconfig"
)

// Buckets holds one map per logical sensor type, keyed by raw sensor id.
// All four maps are always non-nil so they encode as {} rather than null.
type Buckets[T any] struct {
	Humidity         map[string]T `json:"humidity"`
	AirTemperature   map[string]T `json:"airTemperature"`
	WaterTemperature map[string]T `json:"waterTemperature"`
	WaterLevel       map[string]T `json:"waterLevel"`
}

func newBuckets[T any]() Buckets[T] {
	return Buckets[T]{
		Humidity:         map[string]T{},
		AirTemperature:   map[string]T{},
		WaterTemperature: map[string]T{},
		WaterLevel:       map[string]T{},
	}
}

// For returns the bucket of a logical type, or nil for an unknown type.
func (b Buckets[T]) For(t model.SensorType) map[string]T {
	switch t {
	case model.SensorTypeHumidity:
		return b.Humidity
	case model.SensorTypeAirTemperature:
		return b.AirTemperature
	case model.SensorTypeWaterTemperature:
		return b.WaterTemperature
	case model.SensorTypeWaterLevel:
		return b.WaterLevel
	}
	return nil
}

// Snapshot is the normalized view returned to a dashboard poll. It is recomputed on every call.
type Snapshot struct {
	RealtimeData Buckets[*float64] `json:"realtimeData"`
	SensorStatus Buckets[bool]     `json:"sensorStatus"`
	PumpStatus   bool              `json:"pumpStatus"`
	ValveStatus  map[string]any    `json:"valveStatus"`
	WaterWeight  *float64          `json:"waterWeight"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Aggregate merges a device cache snapshot with the sensor type mapping.
// It has no side effects and accepts nil or partially filled inputs.
//
// A sensor lands only in the bucket of its configured type. The dedicated
// humidity, temperature and waterLevel channels take precedence over the
// generic sensors channel, and unconfigured sensors are left out.
func Aggregate(cache *devicecache.Snapshot, mapping sensorconfig.Mapping, now time.Time) Snapshot {
	snap := Snapshot{
		RealtimeData: newBuckets[*float64](),
		SensorStatus: newBuckets[bool](),
		Timestamp:    now,
	}

	place := func(t model.SensorType, id string, e devicecache.Entry) {
		values := snap.RealtimeData.For(t)
		if values == nil {
			return
		}
		var v *float64
		if e.Active() && e.Value != nil {
			x := *e.Value
			v = &x
		}
		values[id] = v
		snap.SensorStatus.For(t)[id] = e.Active()
	}

	for id, e := range cache.Category(devicecache.CategoryHumidity) {
		if mapping[id] == model.SensorTypeHumidity {
			place(model.SensorTypeHumidity, id, e)
		}
	}
	for id, e := range cache.Category(devicecache.CategoryTemperature) {
		switch t := mapping[id]; t {
		case model.SensorTypeAirTemperature, model.SensorTypeWaterTemperature:
			place(t, id, e)
		}
	}
	for id, e := range cache.Category(devicecache.CategoryWaterLevel) {
		if mapping[id] == model.SensorTypeWaterLevel {
			place(model.SensorTypeWaterLevel, id, e)
		}
	}
	for id, e := range cache.Category(devicecache.CategorySensors) {
		t, ok := mapping[id]
		if !ok {
			continue
		}
		bucket := snap.RealtimeData.For(t)
		if bucket == nil {
			continue
		}
		if _, seen := bucket[id]; seen {
			continue
		}
		place(t, id, e)
	}

	if cache != nil {
		if cache.Valve != nil {
			snap.ValveStatus = maps.Clone(cache.Valve)
			snap.PumpStatus = cache.Valve["status"] == "open"
		}
		if w := cache.WaterWeight; w != nil && w.Active() && w.Value != nil {
			v := *w.Value
			snap.WaterWeight = &v
		}
	}
	return snap
}
