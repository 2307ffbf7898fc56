// Package measurement provides air-quality measurement models and
// persistence.
package measurement

import (
	"errors"
	"strings"
	"time"

	"github.com/ariamap/ariamap/internal/geo"
)

// Repository errors.
var (
	ErrNoMeasurements = errors.New("no measurements available")
)

// Pollutant identifies one of the tracked pollutant species.
type Pollutant string

// Tracked pollutants. PM2.5 uses the "pm2dot5" key so it stays safe in
// URLs and column names.
const (
	PollutantPM10 Pollutant = "pm10"
	PollutantPM25 Pollutant = "pm2dot5"
	PollutantNO2  Pollutant = "no2"
	PollutantO3   Pollutant = "o3"
	PollutantSO2  Pollutant = "so2"
	PollutantCO   Pollutant = "co"
	PollutantC6H6 Pollutant = "c6h6"
	PollutantIPA  Pollutant = "ipa"
	PollutantH2S  Pollutant = "h2s"
)

// AllPollutants lists every tracked pollutant in map-generation order.
func AllPollutants() []Pollutant {
	return []Pollutant{
		PollutantPM10, PollutantPM25, PollutantNO2, PollutantO3,
		PollutantSO2, PollutantCO, PollutantC6H6, PollutantIPA, PollutantH2S,
	}
}

// ParsePollutant normalizes an external pollutant label ("PM2.5", "no2")
// to its canonical key.
func ParsePollutant(s string) (Pollutant, bool) {
	s = strings.ToLower(s)
	if s == "pm2.5" {
		s = string(PollutantPM25)
	}
	for _, p := range AllPollutants() {
		if s == string(p) {
			return p, true
		}
	}
	return "", false
}

// Concentration is a single pollutant reading with its source unit.
type Concentration struct {
	Value float64
	Unit  string
}

// Pollutants holds up to nine named concentrations, each optionally
// absent. Immutable once attached to a Measurement.
type Pollutants struct {
	PM10 *Concentration
	PM25 *Concentration
	NO2  *Concentration
	O3   *Concentration
	SO2  *Concentration
	CO   *Concentration
	C6H6 *Concentration
	IPA  *Concentration
	H2S  *Concentration
}

// Get returns the concentration for a pollutant, if present.
func (p *Pollutants) Get(name Pollutant) (Concentration, bool) {
	if p == nil {
		return Concentration{}, false
	}
	var c *Concentration
	switch name {
	case PollutantPM10:
		c = p.PM10
	case PollutantPM25:
		c = p.PM25
	case PollutantNO2:
		c = p.NO2
	case PollutantO3:
		c = p.O3
	case PollutantSO2:
		c = p.SO2
	case PollutantCO:
		c = p.CO
	case PollutantC6H6:
		c = p.C6H6
	case PollutantIPA:
		c = p.IPA
	case PollutantH2S:
		c = p.H2S
	}
	if c == nil {
		return Concentration{}, false
	}
	return *c, true
}

// Empty reports whether every pollutant field is absent.
func (p *Pollutants) Empty() bool {
	if p == nil {
		return true
	}
	for _, name := range AllPollutants() {
		if _, ok := p.Get(name); ok {
			return false
		}
	}
	return true
}

// Measurement is one station reading at one point in time. Produced by
// ingestion and consumed read-only by every downstream stage.
type Measurement struct {
	MeasuredAt   time.Time
	Denomination string
	Municipality string
	Province     string
	Lon          float64
	Lat          float64
	Pollutants   *Pollutants
}

// Location returns the station coordinate.
func (m *Measurement) Location() geo.Point {
	return geo.Point{Lon: m.Lon, Lat: m.Lat}
}

// CoordsAndValues extracts (coordinate, value) pairs for one pollutant
// from a batch. Measurements missing the pollutant are skipped; a batch
// with nothing to contribute yields empty slices, which downstream fits
// reject on their own terms.
func CoordsAndValues(ms []*Measurement, pollutant Pollutant) ([]geo.Point, []float64) {
	coords := make([]geo.Point, 0, len(ms))
	values := make([]float64, 0, len(ms))
	for _, m := range ms {
		c, ok := m.Pollutants.Get(pollutant)
		if !ok {
			continue
		}
		coords = append(coords, m.Location())
		values = append(values, c.Value)
	}
	return coords, values
}

// FilterByMunicipality returns the measurements belonging to a
// municipality, compared case-insensitively.
func FilterByMunicipality(ms []*Measurement, municipality string) []*Measurement {
	var out []*Measurement
	for _, m := range ms {
		if strings.EqualFold(m.Municipality, municipality) {
			out = append(out, m)
		}
	}
	return out
}
