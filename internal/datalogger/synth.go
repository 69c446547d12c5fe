package datalogger

import (
	"math"
	"math/rand/v2"

	"desal-monitor-backend/internal/model"
)

// Synthesizer produces one reading for a compartment.
type Synthesizer interface {
	Reading(compartment int) model.SensorData
}

// Range is an inclusive-exclusive bound for a synthesized quantity.
type Range struct {
	Min, Max float64
}

func (r Range) sample() float64 {
	return math.Round((r.Min+rand.Float64()*(r.Max-r.Min))*10) / 10
}

// RandomSynthesizer draws plausible values from fixed ranges, rounded to one decimal.
type RandomSynthesizer struct {
	AirTemperature   Range
	Humidity         Range
	WaterTemperature Range
}

// DefaultSynthesizer matches the ranges seen on the pilot installation.
var DefaultSynthesizer = RandomSynthesizer{
	AirTemperature:   Range{25, 30},
	Humidity:         Range{60, 70},
	WaterTemperature: Range{20, 25},
}

func (s RandomSynthesizer) Reading(compartment int) model.SensorData {
	air := s.AirTemperature.sample()
	humidity := s.Humidity.sample()
	water := s.WaterTemperature.sample()
	return model.SensorData{
		CompartmentID:    &compartment,
		TemperatureAir:   &air,
		HumidityAir:      &humidity,
		TemperatureWater: &water,
	}
}
