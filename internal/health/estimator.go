// Package health estimates a per-station health-risk index from air
// quality and weather features, then interpolates it into a continuous
// surface over the whole region.
package health

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/aqi"
	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/kriging"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/model"
	"github.com/ariamap/ariamap/internal/weather"
)

// ErrFeatureContract is returned when the health model requires a
// feature the estimator cannot supply. It indicates a deployment
// defect, not sparse data, and aborts the whole estimate.
var ErrFeatureContract = errors.New("model feature contract violated")

// indexPollutants are the concentrations fed to the health model,
// alongside the composite AQI.
var indexPollutants = []measurement.Pollutant{
	measurement.PollutantPM25,
	measurement.PollutantPM10,
	measurement.PollutantNO2,
	measurement.PollutantO3,
	measurement.PollutantSO2,
}

// FeatureVector is one station's input row for the health model.
// Temperature is in Celsius; concentrations are in the AQI tables'
// canonical units.
type FeatureVector struct {
	AQI         float64
	PM10        float64
	PM25        float64
	NO2         float64
	SO2         float64
	O3          float64
	Temperature float64
	Humidity    float64
	WindSpeed   float64
}

// byName maps the model's feature names onto vector fields. The names
// match the training pipeline's column names.
func (f FeatureVector) byName() map[string]float64 {
	return map[string]float64{
		"AQI":         f.AQI,
		"PM10":        f.PM10,
		"PM2_5":       f.PM25,
		"NO2":         f.NO2,
		"SO2":         f.SO2,
		"O3":          f.O3,
		"Temperature": f.Temperature,
		"Humidity":    f.Humidity,
		"WindSpeed":   f.WindSpeed,
	}
}

// WeatherSource produces the same-day synthetic weather forecast for a
// station location.
type WeatherSource interface {
	Forecast(lat, lon float64, date time.Time) weather.Observation
}

// StationIndex is one station's predicted health index.
type StationIndex struct {
	Point geo.Point
	Index float64
}

// Surface is an interpolated health-index map plus the station data it
// was fitted on.
type Surface struct {
	Grid   *geo.Grid
	Result *kriging.Result
	Coords []geo.Point
	Values []float64
}

// EstimatorConfig holds configuration for the health-index estimator.
type EstimatorConfig struct {
	Bundle  *model.Bundle
	Weather WeatherSource
	Engine  *kriging.Engine
	Logger  zerolog.Logger

	// Bounds and Resolution shape the interpolation grid.
	// Defaults: the whole-region box at resolution 50.
	Bounds     geo.Bounds
	Resolution int
}

// Estimator assembles per-station feature vectors, scores them with the
// health model, and interpolates the result.
type Estimator struct {
	bundle     *model.Bundle
	weather    WeatherSource
	engine     *kriging.Engine
	logger     zerolog.Logger
	bounds     geo.Bounds
	resolution int
}

// NewEstimator creates a health-index estimator.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	bounds := cfg.Bounds
	if bounds == (geo.Bounds{}) {
		bounds = geo.PugliaBounds
	}
	resolution := cfg.Resolution
	if resolution == 0 {
		resolution = 50
	}
	return &Estimator{
		bundle:     cfg.Bundle,
		weather:    cfg.Weather,
		engine:     cfg.Engine,
		logger:     cfg.Logger,
		bounds:     bounds,
		resolution: resolution,
	}
}

// EstimateStations scores every station in the batch that reports at
// least one pollutant. Stations with an empty pollutant set are skipped.
func (e *Estimator) EstimateStations(ctx context.Context, ms []*measurement.Measurement, targetDate time.Time) ([]StationIndex, error) {
	var (
		points  []geo.Point
		vectors []FeatureVector
	)
	for _, m := range ms {
		if m.Pollutants.Empty() {
			continue
		}
		points = append(points, m.Location())
		vectors = append(vectors, e.vectorFor(measuredConcentrations(m), m.Lat, m.Lon, targetDate))
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no stations with pollutant data", kriging.ErrInsufficientData)
	}

	indices, err := e.score(ctx, vectors)
	if err != nil {
		return nil, err
	}

	out := make([]StationIndex, len(points))
	for i, p := range points {
		out[i] = StationIndex{Point: p, Index: indices[i]}
	}
	return out, nil
}

// MapFromMeasurements estimates every station's index and interpolates
// a continuous health-risk surface over the configured grid.
func (e *Estimator) MapFromMeasurements(ctx context.Context, ms []*measurement.Measurement, targetDate time.Time) (*Surface, error) {
	stations, err := e.EstimateStations(ctx, ms, targetDate)
	if err != nil {
		return nil, err
	}
	return e.interpolate(stations)
}

// LocationForecast is one forecasted multi-pollutant reading, produced
// by the autoregressive forecaster for a station cluster centroid.
type LocationForecast struct {
	Point  geo.Point
	Values map[measurement.Pollutant]int
}

// MapFromForecasts builds the health-risk surface for a future date
// from forecasted concentrations instead of measured ones.
func (e *Estimator) MapFromForecasts(ctx context.Context, forecasts []LocationForecast, targetDate time.Time) (*Surface, error) {
	if len(forecasts) == 0 {
		return nil, fmt.Errorf("%w: no forecast locations", kriging.ErrInsufficientData)
	}

	points := make([]geo.Point, len(forecasts))
	vectors := make([]FeatureVector, len(forecasts))
	for i, f := range forecasts {
		points[i] = f.Point
		vectors[i] = e.vectorFor(forecastConcentrations(f.Values), f.Point.Lat, f.Point.Lon, targetDate)
	}

	indices, err := e.score(ctx, vectors)
	if err != nil {
		return nil, err
	}

	stations := make([]StationIndex, len(points))
	for i, p := range points {
		stations[i] = StationIndex{Point: p, Index: indices[i]}
	}
	return e.interpolate(stations)
}

// vectorFor assembles one feature row: canonical concentrations, the
// composite AQI, and the synthetic same-day weather.
func (e *Estimator) vectorFor(concentrations map[measurement.Pollutant]float64, lat, lon float64, date time.Time) FeatureVector {
	wx := e.weather.Forecast(lat, lon, date)

	humidity := math.Min(math.Max(wx.Humidity, 0), 100)
	wind := math.Max(wx.WindSpeed, 0)

	return FeatureVector{
		AQI:         float64(aqi.Overall(concentrations)),
		PM10:        concentrations[measurement.PollutantPM10],
		PM25:        concentrations[measurement.PollutantPM25],
		NO2:         concentrations[measurement.PollutantNO2],
		SO2:         concentrations[measurement.PollutantSO2],
		O3:          concentrations[measurement.PollutantO3],
		Temperature: wx.TemperatureK - 273.15,
		Humidity:    humidity,
		WindSpeed:   wind,
	}
}

// score validates the feature table against the model's declared
// ordering and batch-predicts the health index.
func (e *Estimator) score(ctx context.Context, vectors []FeatureVector) ([]float64, error) {
	required, err := e.bundle.Health.RequiredFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving model features: %w", err)
	}

	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		named := v.byName()
		row := make([]float64, len(required))
		for j, name := range required {
			value, ok := named[name]
			if !ok {
				return nil, fmt.Errorf("%w: feature %q not assembled", ErrFeatureContract, name)
			}
			row[j] = value
		}
		rows[i] = row
	}

	indices, err := e.bundle.Health.Predict(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("predicting health index: %w", err)
	}

	e.logger.Debug().Int("stations", len(indices)).Msg("health index predicted")
	return indices, nil
}

func (e *Estimator) interpolate(stations []StationIndex) (*Surface, error) {
	grid, err := geo.MakeGrid(e.bounds, e.resolution)
	if err != nil {
		return nil, err
	}

	coords := make([]geo.Point, len(stations))
	values := make([]float64, len(stations))
	for i, s := range stations {
		coords[i] = s.Point
		values[i] = s.Index
	}

	result, err := e.engine.FitPredict(coords, values, grid, kriging.WholeRegionProfile)
	if err != nil {
		return nil, err
	}

	return &Surface{Grid: grid, Result: result, Coords: coords, Values: values}, nil
}

// measuredConcentrations converts a station's reported pollutants to
// canonical AQI units, defaulting the missing ones to zero.
func measuredConcentrations(m *measurement.Measurement) map[measurement.Pollutant]float64 {
	out := make(map[measurement.Pollutant]float64, len(indexPollutants))
	for _, p := range indexPollutants {
		c, ok := m.Pollutants.Get(p)
		if !ok {
			out[p] = 0
			continue
		}
		out[p] = aqi.ToCanonicalUnit(p, c.Value, c.Unit)
	}
	return out
}

// forecastConcentrations treats forecasted integers as µg/m³ readings
// and converts them the same way measured values are.
func forecastConcentrations(values map[measurement.Pollutant]int) map[measurement.Pollutant]float64 {
	out := make(map[measurement.Pollutant]float64, len(indexPollutants))
	for _, p := range indexPollutants {
		out[p] = aqi.ToCanonicalUnit(p, float64(values[p]), "µg/m³")
	}
	return out
}
