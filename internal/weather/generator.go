// Package weather generates synthetic same-day weather forecasts from a
// daily climatology table.
package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DayStats is one climatology row: the historical mean and standard
// deviation of temperature, humidity and wind speed for one station
// location on one calendar day.
type DayStats struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Month int     `json:"month"`
	Day   int     `json:"day"`

	TempMean float64 `json:"temp_mean"`
	TempStd  float64 `json:"temp_std"`
	HumMean  float64 `json:"hum_mean"`
	HumStd   float64 `json:"hum_std"`
	WindMean float64 `json:"wind_mean"`
	WindStd  float64 `json:"wind_std"`
}

// Observation is one synthetic forecast. Temperature stays in Kelvin,
// matching the historical dataset; consumers convert as needed.
type Observation struct {
	TemperatureK float64
	Humidity     float64
	WindSpeed    float64
}

// Generator produces deterministic synthetic forecasts: the draw is
// re-seeded on every call, so the same (location, date) always yields
// the same observation.
type Generator struct {
	stats []DayStats
	seed  uint64

	// Dataset-wide fallback for locations/days with no exact match.
	fallback DayStats
}

const defaultSeed = 42

// NewGenerator creates a generator over a climatology table. A zero
// seed selects the default.
func NewGenerator(stats []DayStats, seed uint64) *Generator {
	if seed == 0 {
		seed = defaultSeed
	}

	g := &Generator{stats: stats, seed: seed}

	if len(stats) > 0 {
		for _, s := range stats {
			g.fallback.TempMean += s.TempMean
			g.fallback.TempStd += s.TempStd
			g.fallback.HumMean += s.HumMean
			g.fallback.HumStd += s.HumStd
			g.fallback.WindMean += s.WindMean
			g.fallback.WindStd += s.WindStd
		}
		n := float64(len(stats))
		g.fallback.TempMean /= n
		g.fallback.TempStd /= n
		g.fallback.HumMean /= n
		g.fallback.HumStd /= n
		g.fallback.WindMean /= n
		g.fallback.WindStd /= n
	}

	return g
}

// Forecast generates the synthetic weather for a station location and
// date. Statistics are looked up by exact latitude/longitude and
// calendar day; absent an exact match the dataset-wide averages apply.
// Humidity clips to [0, 100] and wind speed floors at zero.
func (g *Generator) Forecast(lat, lon float64, date time.Time) Observation {
	stats := g.fallback
	for _, s := range g.stats {
		if s.Lat == lat && s.Lon == lon && s.Month == int(date.Month()) && s.Day == date.Day() {
			stats = s
			break
		}
	}

	src := rand.NewSource(g.seed)
	temp := distuv.Normal{Mu: stats.TempMean, Sigma: sigma(stats.TempStd), Src: src}.Rand()
	hum := distuv.Normal{Mu: stats.HumMean, Sigma: sigma(stats.HumStd), Src: src}.Rand()
	wind := distuv.Normal{Mu: stats.WindMean, Sigma: sigma(stats.WindStd), Src: src}.Rand()

	hum = math.Min(math.Max(hum, 0), 100)
	wind = math.Max(wind, 0)

	return Observation{
		TemperatureK: round2(temp),
		Humidity:     round2(hum),
		WindSpeed:    round2(wind),
	}
}

// sigma guards against degenerate zero-variance rows; distuv requires a
// positive standard deviation.
func sigma(std float64) float64 {
	if std <= 0 {
		return 1e-9
	}
	return std
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LoadStats reads a climatology table from a JSON file.
func LoadStats(path string) ([]DayStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading climatology table: %w", err)
	}

	var stats []DayStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("parsing climatology table: %w", err)
	}

	if len(stats) == 0 {
		return nil, errors.New("climatology table is empty")
	}
	return stats, nil
}
