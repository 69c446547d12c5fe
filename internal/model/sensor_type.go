package model

// SensorType is the administrator-assigned logical category of a raw device sensor.
type SensorType string

const (
	SensorTypeHumidity         SensorType = "humidity"
	SensorTypeAirTemperature   SensorType = "air_temperature"
	SensorTypeWaterTemperature SensorType = "water_temperature"
	SensorTypeWaterLevel       SensorType = "water_level"
)

// SensorTypes lists every logical type in display order.
var SensorTypes = []SensorType{
	SensorTypeHumidity,
	SensorTypeAirTemperature,
	SensorTypeWaterTemperature,
	SensorTypeWaterLevel,
}

// Valid reports whether t is one of the known logical types.
func (t SensorType) Valid() bool {
	switch t {
	case SensorTypeHumidity, SensorTypeAirTemperature, SensorTypeWaterTemperature, SensorTypeWaterLevel:
		return true
	}
	return false
}

// Bucket returns the dashboard bucket key for the type, or "" for an unknown type.
func (t SensorType) Bucket() string {
	switch t {
	case SensorTypeHumidity:
		return "humidity"
	case SensorTypeAirTemperature:
		return "airTemperature"
	case SensorTypeWaterTemperature:
		return "waterTemperature"
	case SensorTypeWaterLevel:
		return "waterLevel"
	}
	return ""
}
