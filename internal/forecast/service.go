package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/health"
	"github.com/ariamap/ariamap/internal/measurement"
)

// ErrAllStationsFailed is returned when no station cluster produced a
// usable forecast; partial failure is tolerated, total failure is not.
var ErrAllStationsFailed = errors.New("every station forecast failed")

// HealthMapper builds a health-risk surface from forecasted
// concentrations.
type HealthMapper interface {
	MapFromForecasts(ctx context.Context, forecasts []health.LocationForecast, targetDate time.Time) (*health.Surface, error)
}

// StationFailure records one centroid whose forecast failed.
type StationFailure struct {
	Point geo.Point
	Err   error
}

// HealthForecast is the outcome of one forecasted health-map request:
// the interpolated surface, the per-centroid forecasts it was built
// from, and the centroids that failed.
type HealthForecast struct {
	Surface   *health.Surface
	Forecasts []health.LocationForecast
	Failures  []StationFailure
}

// ServiceConfig holds configuration for the forecast service.
type ServiceConfig struct {
	Repository measurement.Repository
	Forecaster *Forecaster
	Estimator  HealthMapper
	Logger     zerolog.Logger
	Clock      clockwork.Clock

	// Workers bounds concurrent per-centroid forecasts. Default: 4.
	Workers int

	// ClusterEps is the deduplication radius in coordinate degrees.
	// Default: DefaultClusterEps.
	ClusterEps float64
}

// Service turns a future date into a forecasted health-risk map:
// deduplicate today's stations, forecast each centroid, score and
// interpolate the result.
type Service struct {
	repo       measurement.Repository
	forecaster *Forecaster
	estimator  HealthMapper
	logger     zerolog.Logger
	clock      clockwork.Clock
	workers    int
	clusterEps float64
}

// NewService creates a forecast service.
func NewService(cfg ServiceConfig) *Service {
	workers := cfg.Workers
	if workers == 0 {
		workers = 4
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	eps := cfg.ClusterEps
	if eps == 0 {
		eps = DefaultClusterEps
	}
	return &Service{
		repo:       cfg.Repository,
		forecaster: cfg.Forecaster,
		estimator:  cfg.Estimator,
		logger:     cfg.Logger,
		clock:      clock,
		workers:    workers,
		clusterEps: eps,
	}
}

// HealthMapForDate forecasts every deduplicated station cluster to the
// target date and interpolates the predicted health index into a
// surface. Individual cluster failures are recorded and skipped; the
// request fails only when nothing succeeds.
func (s *Service) HealthMapForDate(ctx context.Context, targetDate time.Time) (*HealthForecast, error) {
	coords, err := s.repo.FindUniqueCoordsForDay(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("loading station coordinates: %w", err)
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("loading station coordinates: %w", measurement.ErrNoMeasurements)
	}

	centroids := Dedupe(coords, s.clusterEps)
	s.logger.Info().
		Int("stations", len(coords)).
		Int("clusters", len(centroids)).
		Time("target", targetDate).
		Msg("forecasting station clusters")

	forecasts, failures := s.forecastAll(ctx, centroids, targetDate)
	if len(forecasts) == 0 {
		return nil, fmt.Errorf("%w: %d clusters attempted", ErrAllStationsFailed, len(centroids))
	}

	for _, f := range failures {
		s.logger.Warn().
			Float64("lon", f.Point.Lon).
			Float64("lat", f.Point.Lat).
			Err(f.Err).
			Msg("station cluster forecast failed")
	}

	surface, err := s.estimator.MapFromForecasts(ctx, forecasts, targetDate)
	if err != nil {
		return nil, fmt.Errorf("building forecast health map: %w", err)
	}

	return &HealthForecast{
		Surface:   surface,
		Forecasts: forecasts,
		Failures:  failures,
	}, nil
}

// forecastAll runs per-centroid forecasts on a bounded worker pool.
// Each walk is sequential internally; clusters are independent.
func (s *Service) forecastAll(ctx context.Context, centroids []geo.Point, targetDate time.Time) ([]health.LocationForecast, []StationFailure) {
	jobs := make(chan geo.Point)

	var (
		mu        sync.Mutex
		forecasts []health.LocationForecast
		failures  []StationFailure
	)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				values, err := s.forecaster.Forecast(ctx, targetDate, p.Lon, p.Lat)
				mu.Lock()
				if err != nil {
					failures = append(failures, StationFailure{Point: p, Err: err})
				} else {
					forecasts = append(forecasts, health.LocationForecast{Point: p, Values: values})
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range centroids {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	return forecasts, failures
}
