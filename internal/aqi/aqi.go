// Package aqi converts pollutant concentrations between measurement
// units and computes the composite Air Quality Index from EPA breakpoint
// tables.
package aqi

import (
	"math"

	"github.com/ariamap/ariamap/internal/measurement"
)

// Breakpoint is one bracket of an EPA AQI breakpoint table: the
// concentration range [CLow, CHigh] maps linearly onto the index range
// [ILow, IHigh].
type Breakpoint struct {
	CLow  float64
	CHigh float64
	ILow  float64
	IHigh float64
}

// breakpoints holds the EPA tables for the five AQI-relevant pollutants.
// Concentrations are expected in canonical AQI units: µg/m³ for
// particulates, ppm for O3, ppb for SO2 and NO2.
var breakpoints = map[measurement.Pollutant][]Breakpoint{
	measurement.PollutantPM25: {
		{0.0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500.0, 301, 500},
	},
	measurement.PollutantPM10: {
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 604, 301, 500},
	},
	measurement.PollutantO3: {
		{0.000, 0.054, 0, 50},
		{0.055, 0.070, 51, 100},
		{0.071, 0.085, 101, 150},
		{0.086, 0.105, 151, 200},
		{0.106, 0.200, 201, 300},
	},
	measurement.PollutantSO2: {
		{0, 35, 0, 50},
		{36, 75, 51, 100},
		{76, 185, 101, 150},
		{186, 304, 151, 200},
		{305, 604, 201, 300},
		{605, 1004, 301, 500},
	},
	measurement.PollutantNO2: {
		{0, 53, 0, 50},
		{54, 100, 51, 100},
		{101, 360, 101, 150},
		{361, 649, 151, 200},
		{650, 1249, 201, 300},
		{1250, 2049, 301, 500},
	},
}

// ToCanonicalUnit converts a raw concentration into the unit the AQI
// tables expect. O3 arrives in µg/m³ and converts to ppm unless already
// there; SO2 and NO2 convert to ppb. Everything else passes through.
func ToCanonicalUnit(pollutant measurement.Pollutant, value float64, unit string) float64 {
	switch pollutant {
	case measurement.PollutantO3:
		if unit != "ppm" {
			return value / 2140
		}
	case measurement.PollutantSO2:
		if unit != "ppb" {
			return value / 2.62
		}
	case measurement.PollutantNO2:
		if unit != "ppb" {
			return value / 1.88
		}
	}
	return value
}

// For computes the AQI sub-index for a single pollutant concentration by
// linear interpolation within the first bracket containing it. The
// second return value is false when the concentration falls outside
// every defined bracket (or the pollutant has no table).
func For(pollutant measurement.Pollutant, concentration float64) (float64, bool) {
	for _, bp := range breakpoints[pollutant] {
		if concentration >= bp.CLow && concentration <= bp.CHigh {
			index := (bp.IHigh-bp.ILow)/(bp.CHigh-bp.CLow)*(concentration-bp.CLow) + bp.ILow
			return index, true
		}
	}
	return 0, false
}

// Overall computes the composite AQI for a set of concentrations in
// canonical units: the maximum sub-index across pollutants, rounded to
// the nearest integer. Returns 0 when no pollutant yields a sub-index.
func Overall(concentrations map[measurement.Pollutant]float64) int {
	maxIndex := 0.0
	for pollutant, concentration := range concentrations {
		index, ok := For(pollutant, concentration)
		if ok && index > maxIndex {
			maxIndex = index
		}
	}
	return int(math.Round(maxIndex))
}
