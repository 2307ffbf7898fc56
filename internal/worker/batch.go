// Package worker processes measurement batches arriving on the
// ingestion queue: persist the batch, fan out the pollutant maps, and
// refresh the health-index map.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/health"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/pipeline"
	"github.com/ariamap/ariamap/internal/render"
)

// BatchJobConfig holds configuration for the batch processor.
type BatchJobConfig struct {
	Ingestion *measurement.Service
	Scheduler *pipeline.Scheduler
	Estimator *health.Estimator
	Renderer  render.Renderer
	Artifacts datamap.Repository
	Logger    zerolog.Logger
	Clock     clockwork.Clock
}

// BatchJob runs the full map pipeline for one ingested batch.
type BatchJob struct {
	ingestion *measurement.Service
	scheduler *pipeline.Scheduler
	estimator *health.Estimator
	renderer  render.Renderer
	artifacts datamap.Repository
	logger    zerolog.Logger
	clock     clockwork.Clock
}

// NewBatchJob creates a batch processor.
func NewBatchJob(cfg BatchJobConfig) *BatchJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BatchJob{
		ingestion: cfg.Ingestion,
		scheduler: cfg.Scheduler,
		estimator: cfg.Estimator,
		renderer:  cfg.Renderer,
		artifacts: cfg.Artifacts,
		logger:    cfg.Logger,
		clock:     clock,
	}
}

// BatchOutcome reports one processed batch. Scope and health failures
// are recorded here rather than failing the batch; only ingestion
// errors abort processing.
type BatchOutcome struct {
	Ingested int
	Maps     pipeline.BatchResult

	HealthLocation string
	HealthErr      error
}

// Process ingests the records and generates every map for the batch.
// The pollutant fan-out and the health-index flow only share read
// access to the stamped batch, so they run concurrently.
func (j *BatchJob) Process(ctx context.Context, records []measurement.Record) (*BatchOutcome, error) {
	ms := make([]*measurement.Measurement, len(records))
	for i, r := range records {
		ms[i] = r.ToDomain()
	}

	stamped, err := j.ingestion.IngestBatch(ctx, ms)
	if err != nil {
		return nil, fmt.Errorf("ingesting batch: %w", err)
	}

	outcome := &BatchOutcome{Ingested: len(stamped)}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcome.Maps = j.scheduler.Run(ctx, stamped)
	}()
	go func() {
		defer wg.Done()
		outcome.HealthLocation, outcome.HealthErr = j.healthMap(ctx, stamped)
	}()
	wg.Wait()

	if outcome.HealthErr != nil {
		j.logger.Error().Err(outcome.HealthErr).Msg("health map generation failed")
	}
	for _, s := range outcome.Maps.Failed() {
		j.logger.Warn().
			Str("scope", s.Scope).
			Str("pollutant", string(s.FailedPollutant)).
			Err(s.Err).
			Msg("scope failed during batch")
	}

	j.logger.Info().
		Int("measurements", outcome.Ingested).
		Int("scopes", len(outcome.Maps.Scopes)).
		Bool("health_map", outcome.HealthErr == nil).
		Msg("batch processed")

	return outcome, nil
}

// healthMap interpolates the health index for the batch and persists
// the rendered artifact under the health tag.
func (j *BatchJob) healthMap(ctx context.Context, ms []*measurement.Measurement) (string, error) {
	surface, err := j.estimator.MapFromMeasurements(ctx, ms, j.clock.Now())
	if err != nil {
		return "", fmt.Errorf("estimating health surface: %w", err)
	}

	location, err := j.renderer.Render(ctx, render.Request{
		Grid:         surface.Grid,
		Values:       surface.Result.Mean,
		Coords:       surface.Coords,
		SourceValues: surface.Values,
		Label:        datamap.HealthIndexTag,
		Region:       "Puglia",
		Bounds:       geo.PugliaBounds,
		Timestamp:    j.clock.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering health surface: %w", err)
	}

	if err := j.artifacts.Save(ctx, &datamap.DataMap{
		CreatedAt: j.clock.Now(),
		Pollutant: datamap.HealthIndexTag,
		URL:       location,
		Region:    "Puglia",
	}); err != nil {
		return "", fmt.Errorf("saving health artifact: %w", err)
	}

	return location, nil
}
