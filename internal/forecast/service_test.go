package forecast_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/forecast"
	"github.com/ariamap/ariamap/internal/health"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/model"
)

type captureEstimator struct {
	forecasts []health.LocationForecast
}

func (c *captureEstimator) MapFromForecasts(_ context.Context, forecasts []health.LocationForecast, _ time.Time) (*health.Surface, error) {
	c.forecasts = forecasts
	return &health.Surface{}, nil
}

func seedStations(t *testing.T, repo *measurement.InMemoryRepository, now time.Time, coords ...[2]float64) {
	t.Helper()
	for _, c := range coords {
		err := repo.Save(context.Background(), &measurement.Measurement{
			MeasuredAt:   now,
			Denomination: "station",
			Lat:          c[0],
			Lon:          c[1],
			Pollutants:   &measurement.Pollutants{PM10: &measurement.Concentration{Value: 20}},
		})
		require.NoError(t, err)
	}
}

func newService(t *testing.T, estimator forecast.HealthMapper, coords ...[2]float64) (*forecast.Service, *measurement.InMemoryRepository) {
	t.Helper()

	now := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	repo := measurement.NewInMemoryRepository()
	seedStations(t, repo, now, coords...)

	forecaster := forecast.NewForecaster(forecast.ForecasterConfig{
		Bundle:  testBundle(&fakeSequenceModel{prediction: []float64{0.5, 0.5, 0.5, 0.5, 0.5}}),
		Weather: stillWeather{},
	})

	svc := forecast.NewService(forecast.ServiceConfig{
		Repository: repo,
		Forecaster: forecaster,
		Estimator:  estimator,
		Clock:      clockwork.NewFakeClockAt(now),
		Workers:    2,
	})
	return svc, repo
}

func TestHealthMapForDate(t *testing.T) {
	estimator := &captureEstimator{}
	// Two nearly co-located Lecce stations and one distinct one.
	svc, _ := newService(t, estimator,
		[2]float64{40.35, 18.17},
		[2]float64{40.36, 18.18},
		[2]float64{40.39, 18.60},
	)

	result, err := svc.HealthMapForDate(context.Background(), anchorPlus(2))
	require.NoError(t, err)

	// The co-located pair collapses into one centroid.
	assert.Len(t, result.Forecasts, 2)
	assert.Empty(t, result.Failures)
	assert.Len(t, estimator.forecasts, 2)

	for _, f := range result.Forecasts {
		assert.Equal(t, 11, f.Values[measurement.PollutantPM25])
	}
}

func TestHealthMapForDatePartialFailure(t *testing.T) {
	estimator := &captureEstimator{}
	// One Lecce station and one near the training station that has no
	// stored sequence.
	svc, _ := newService(t, estimator,
		[2]float64{40.35, 18.17},
		[2]float64{41.11, 16.86},
	)

	result, err := svc.HealthMapForDate(context.Background(), anchorPlus(2))
	require.NoError(t, err)

	assert.Len(t, result.Forecasts, 1)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, forecast.ErrNoTrainingStation)
}

func TestHealthMapForDateAllStationsFail(t *testing.T) {
	svc, _ := newService(t, &captureEstimator{}, [2]float64{41.11, 16.86})

	_, err := svc.HealthMapForDate(context.Background(), anchorPlus(2))
	assert.ErrorIs(t, err, forecast.ErrAllStationsFailed)
}

func TestHealthMapForDateNoStations(t *testing.T) {
	svc, _ := newService(t, &captureEstimator{})

	_, err := svc.HealthMapForDate(context.Background(), anchorPlus(2))
	assert.ErrorIs(t, err, measurement.ErrNoMeasurements)
}

func TestSequenceKeyMatchesStations(t *testing.T) {
	b := testBundle(&fakeSequenceModel{})
	_, err := b.SequenceFor(b.Stations[0].Lat, b.Stations[0].Lon)
	assert.NoError(t, err)

	_, err = b.SequenceFor(b.Stations[1].Lat, b.Stations[1].Lon)
	assert.ErrorIs(t, err, model.ErrNoSequence)
}
