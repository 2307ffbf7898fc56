package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/kriging"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/render"
)

// SchedulerConfig holds configuration for the fan-out scheduler.
type SchedulerConfig struct {
	Engine    *kriging.Engine
	Renderer  render.Renderer
	Artifacts datamap.Repository
	Logger    zerolog.Logger
	Clock     clockwork.Clock
	Metrics   *Metrics

	// Scopes to fan out over. Default: DefaultScopes().
	Scopes []Scope

	// Pollutants to interpolate, in order. Default: all nine.
	Pollutants []measurement.Pollutant
}

// Scheduler fans one measurement batch out across scopes and
// pollutants, interpolates each combination, and persists the rendered
// artifacts.
type Scheduler struct {
	engine     *kriging.Engine
	renderer   render.Renderer
	artifacts  datamap.Repository
	logger     zerolog.Logger
	clock      clockwork.Clock
	metrics    *Metrics
	scopes     []Scope
	pollutants []measurement.Pollutant
}

// NewScheduler creates a fan-out scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	scopes := cfg.Scopes
	if scopes == nil {
		scopes = DefaultScopes()
	}
	pollutants := cfg.Pollutants
	if pollutants == nil {
		pollutants = measurement.AllPollutants()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		engine:     cfg.Engine,
		renderer:   cfg.Renderer,
		artifacts:  cfg.Artifacts,
		logger:     cfg.Logger,
		clock:      clock,
		metrics:    cfg.Metrics,
		scopes:     scopes,
		pollutants: pollutants,
	}
}

// Artifact is one persisted map reference within a scope result.
type Artifact struct {
	Pollutant measurement.Pollutant
	Location  string
}

// ScopeResult reports one scope's outcome: the artifacts produced
// before the first failure, and the pollutant that failed, if any.
type ScopeResult struct {
	Scope     string
	Artifacts []Artifact

	// FailedPollutant and Err are set when the scope aborted early.
	// Pollutants after the failed one were not attempted.
	FailedPollutant measurement.Pollutant
	Err             error
}

// BatchResult is the outcome of one batch run across all scopes.
// Partial success is a normal outcome, not an error.
type BatchResult struct {
	Scopes []ScopeResult
}

// Failed returns the scopes that aborted.
func (b BatchResult) Failed() []ScopeResult {
	var out []ScopeResult
	for _, s := range b.Scopes {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Run interpolates the batch for every scope concurrently. Each scope
// is its own fault boundary: a pollutant failure aborts that scope's
// remaining pollutants and nothing else.
func (s *Scheduler) Run(ctx context.Context, ms []*measurement.Measurement) BatchResult {
	results := make([]ScopeResult, len(s.scopes))

	var wg sync.WaitGroup
	for i, scope := range s.scopes {
		wg.Add(1)
		go func(i int, scope Scope) {
			defer wg.Done()
			results[i] = s.runScope(ctx, scope, ms)
		}(i, scope)
	}
	wg.Wait()

	return BatchResult{Scopes: results}
}

func (s *Scheduler) runScope(ctx context.Context, scope Scope, ms []*measurement.Measurement) ScopeResult {
	result := ScopeResult{Scope: scope.Name}
	selected := scope.Select(ms)

	for _, pollutant := range s.pollutants {
		location, err := s.generateMap(ctx, scope, selected, pollutant)
		if err != nil {
			result.FailedPollutant = pollutant
			result.Err = err
			s.metrics.RecordScopeFailure(ctx, scope.Name)
			s.logger.Error().
				Str("scope", scope.Name).
				Str("pollutant", string(pollutant)).
				Err(err).
				Msg("scope aborted, remaining pollutants skipped")
			return result
		}
		result.Artifacts = append(result.Artifacts, Artifact{Pollutant: pollutant, Location: location})
	}

	s.logger.Info().
		Str("scope", scope.Name).
		Int("maps", len(result.Artifacts)).
		Msg("scope completed")
	return result
}

// generateMap interpolates one (scope, pollutant) pair, renders it, and
// persists the artifact reference.
func (s *Scheduler) generateMap(ctx context.Context, scope Scope, ms []*measurement.Measurement, pollutant measurement.Pollutant) (string, error) {
	coords, values := measurement.CoordsAndValues(ms, pollutant)

	grid, err := geo.MakeGrid(scope.Bounds, scope.Resolution)
	if err != nil {
		return "", err
	}

	start := time.Now()
	fitted, err := s.engine.FitPredict(coords, values, grid, scope.Profile)
	if err != nil {
		return "", fmt.Errorf("interpolating %s: %w", pollutant, err)
	}
	s.metrics.RecordFit(ctx, scope.Name, string(pollutant), time.Since(start))

	location, err := s.renderer.Render(ctx, render.Request{
		Grid:         grid,
		Values:       fitted.Mean,
		Coords:       coords,
		SourceValues: values,
		Label:        string(pollutant),
		Region:       scope.Name,
		Bounds:       scope.Bounds,
		Timestamp:    s.clock.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", pollutant, err)
	}

	if err := s.artifacts.Save(ctx, &datamap.DataMap{
		CreatedAt: s.clock.Now(),
		Pollutant: string(pollutant),
		URL:       location,
		Region:    scope.Name,
	}); err != nil {
		return "", fmt.Errorf("saving artifact for %s: %w", pollutant, err)
	}

	s.metrics.RecordMap(ctx, scope.Name, string(pollutant))
	return location, nil
}
