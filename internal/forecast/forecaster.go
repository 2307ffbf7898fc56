package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/model"
	"github.com/ariamap/ariamap/internal/weather"
)

// Predefined errors for forecasting.
var (
	// ErrNoTrainingStation is returned when the nearest training
	// station has no stored rolling sequence.
	ErrNoTrainingStation = errors.New("no training station for location")

	// ErrHorizonExceeded is returned when the target date lies beyond
	// the configured forecast horizon.
	ErrHorizonExceeded = errors.New("target date beyond forecast horizon")
)

// Pollutants lists the forecasted pollutants in the order the sequence
// model emits them, which is also the pollutant scaler's column order.
var Pollutants = []measurement.Pollutant{
	measurement.PollutantPM25,
	measurement.PollutantPM10,
	measurement.PollutantNO2,
	measurement.PollutantO3,
	measurement.PollutantSO2,
}

// WeatherSource produces the synthetic weather for one simulated day.
type WeatherSource interface {
	Forecast(lat, lon float64, date time.Time) weather.Observation
}

// ForecasterConfig holds configuration for the autoregressive
// forecaster.
type ForecasterConfig struct {
	Bundle  *model.Bundle
	Weather WeatherSource
	Logger  zerolog.Logger

	// AnchorDate is the fixed date the stored sequences end at; the
	// walk starts there and steps daily to the target. Default:
	// 2025-08-25.
	AnchorDate time.Time

	// MaxHorizonDays bounds how far past the anchor a target date may
	// lie. Default: 366.
	MaxHorizonDays int
}

// Forecaster walks a station's rolling sequence forward one simulated
// day at a time. Each walk owns its sequence copy, so forecasts for
// different locations are safe to run concurrently.
type Forecaster struct {
	bundle     *model.Bundle
	weather    WeatherSource
	logger     zerolog.Logger
	anchor     time.Time
	maxHorizon int
}

// NewForecaster creates an autoregressive forecaster.
func NewForecaster(cfg ForecasterConfig) *Forecaster {
	anchor := cfg.AnchorDate
	if anchor.IsZero() {
		anchor = time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	}
	maxHorizon := cfg.MaxHorizonDays
	if maxHorizon == 0 {
		maxHorizon = 366
	}
	return &Forecaster{
		bundle:     cfg.Bundle,
		weather:    cfg.Weather,
		logger:     cfg.Logger,
		anchor:     anchor,
		maxHorizon: maxHorizon,
	}
}

// Forecast predicts the pollutant concentrations at a location on a
// future date. The location resolves to the nearest training station;
// the returned map holds native-unit values rounded to integers, keyed
// by pollutant.
func (f *Forecaster) Forecast(ctx context.Context, targetDate time.Time, lon, lat float64) (map[measurement.Pollutant]int, error) {
	target := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, time.UTC)

	days := int(target.Sub(f.anchor).Hours() / 24)
	if days < 0 {
		return nil, fmt.Errorf("%w: target %s precedes anchor %s",
			ErrHorizonExceeded, target.Format(time.DateOnly), f.anchor.Format(time.DateOnly))
	}
	if days > f.maxHorizon {
		return nil, fmt.Errorf("%w: %d days past anchor, limit %d", ErrHorizonExceeded, days, f.maxHorizon)
	}

	if len(f.bundle.Stations) == 0 {
		return nil, fmt.Errorf("%w: bundle has no training stations", ErrNoTrainingStation)
	}

	station := f.nearestStation(lon, lat)
	window, err := f.bundle.SequenceFor(station.Lat, station.Lon)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest station (%v, %v)", ErrNoTrainingStation, station.Lat, station.Lon)
	}

	scaledCoords, err := f.bundle.Scalers.Coordinate.Transform([]float64{station.Lat, station.Lon})
	if err != nil {
		return nil, fmt.Errorf("scaling station coordinates: %w", err)
	}

	// The walk covers every day from the anchor to the target
	// inclusive, so a target equal to the anchor is one step.
	var prediction []float64
	for step := 0; step <= days; step++ {
		day := f.anchor.AddDate(0, 0, step)

		exogenous, err := f.exogenousFeatures(day, station, scaledCoords)
		if err != nil {
			return nil, err
		}

		prediction, err = f.bundle.Sequence.Predict(ctx, window, exogenous)
		if err != nil {
			return nil, fmt.Errorf("sequence prediction for %s: %w", day.Format(time.DateOnly), err)
		}

		// Slide the window: drop the oldest entry, append the newest.
		window = append(window[1:], prediction)
	}

	raw, err := f.bundle.Scalers.Pollutant.InverseTransform(prediction)
	if err != nil {
		return nil, fmt.Errorf("descaling final prediction: %w", err)
	}
	if len(raw) < len(Pollutants) {
		return nil, fmt.Errorf("sequence model returned %d pollutants, want %d", len(raw), len(Pollutants))
	}

	out := make(map[measurement.Pollutant]int, len(Pollutants))
	for i, p := range Pollutants {
		out[p] = int(math.Round(raw[i]))
	}

	f.logger.Debug().
		Time("target", target).
		Int("steps", days+1).
		Float64("station_lat", station.Lat).
		Float64("station_lon", station.Lon).
		Msg("forecast walk completed")

	return out, nil
}

// exogenousFeatures encodes one simulated day: scaled year, cyclic
// month/day pairs, scaled synthetic weather, scaled coordinates.
func (f *Forecaster) exogenousFeatures(day time.Time, station model.Station, scaledCoords []float64) ([]float64, error) {
	scaledYear, err := f.bundle.Scalers.Year.Transform([]float64{float64(day.Year())})
	if err != nil {
		return nil, fmt.Errorf("scaling year: %w", err)
	}

	month := float64(day.Month())
	dom := float64(day.Day())
	cyclic := []float64{
		math.Sin(2 * math.Pi * month / 12),
		math.Cos(2 * math.Pi * month / 12),
		math.Sin(2 * math.Pi * dom / 31),
		math.Cos(2 * math.Pi * dom / 31),
	}

	wx := f.weather.Forecast(station.Lat, station.Lon, day)
	scaledMeteo, err := f.bundle.Scalers.Meteo.Transform([]float64{wx.TemperatureK, wx.Humidity, wx.WindSpeed})
	if err != nil {
		return nil, fmt.Errorf("scaling weather: %w", err)
	}

	features := make([]float64, 0, len(scaledYear)+len(cyclic)+len(scaledMeteo)+len(scaledCoords))
	features = append(features, scaledYear...)
	features = append(features, cyclic...)
	features = append(features, scaledMeteo...)
	features = append(features, scaledCoords...)
	return features, nil
}

// nearestStation resolves the training station closest to a location by
// great-circle distance.
func (f *Forecaster) nearestStation(lon, lat float64) model.Station {
	target := geo.Point{Lon: lon, Lat: lat}
	best := f.bundle.Stations[0]
	bestDist := geo.HaversineKm(target, geo.Point{Lon: best.Lon, Lat: best.Lat})
	for _, s := range f.bundle.Stations[1:] {
		d := geo.HaversineKm(target, geo.Point{Lon: s.Lon, Lat: s.Lat})
		if d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}
