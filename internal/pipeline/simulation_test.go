package pipeline_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/kriging"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/pipeline"
	"github.com/ariamap/ariamap/internal/render"
)

func plantedArea() geo.Bounds {
	return geo.Bounds{North: 40.38, South: 40.34, West: 18.10, East: 18.18}
}

func newSimulator(renderer render.Renderer, pollutants []measurement.Pollutant) *pipeline.Simulator {
	scope := pipeline.DefaultScopes()[1]
	scope.Resolution = 5
	return pipeline.NewSimulator(pipeline.SimulatorConfig{
		Engine:     kriging.NewEngine(kriging.EngineConfig{}),
		Renderer:   renderer,
		Scope:      scope,
		Pollutants: pollutants,
	})
}

func TestSimulatorRun(t *testing.T) {
	renderer := render.NewMemoryRenderer()
	sim := newSimulator(renderer, []measurement.Pollutant{measurement.PollutantPM10})

	result, err := sim.Run(context.Background(), fullBatch(), pipeline.SimulationRequest{
		Area:    plantedArea(),
		NPoints: 4,
	})
	require.NoError(t, err)

	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, measurement.PollutantPM10, result.Artifacts[0].Pollutant)

	// One overlay reference plus one adjusted map.
	requests := renderer.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "TreesModel", requests[0].Region)
	assert.Equal(t, "Simulation", requests[1].Region)

	// Adjusted surface never goes negative.
	for _, row := range requests[1].Values {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
}

func TestSimulatorRunDeterministic(t *testing.T) {
	run := func() [][]float64 {
		renderer := render.NewMemoryRenderer()
		sim := newSimulator(renderer, []measurement.Pollutant{measurement.PollutantPM10})
		_, err := sim.Run(context.Background(), fullBatch(), pipeline.SimulationRequest{
			Area:    plantedArea(),
			NPoints: 4,
			Seed:    7,
		})
		require.NoError(t, err)
		return renderer.Requests()[1].Values
	}

	assert.Equal(t, run(), run())
}

func TestSimulatorRejectsNonPositivePointCount(t *testing.T) {
	sim := newSimulator(render.NewMemoryRenderer(), nil)

	_, err := sim.Run(context.Background(), fullBatch(), pipeline.SimulationRequest{Area: plantedArea()})
	assert.ErrorIs(t, err, pipeline.ErrInvalidSimulation)
}

func TestSyntheticSourcesLayout(t *testing.T) {
	// Square area: nine points land on a 3x3 cell-centered lattice.
	area := geo.Bounds{North: 1, South: 0, West: 0, East: 1}
	points := pipeline.SyntheticSources(area, 9)

	require.Len(t, points, 9)
	assert.InDelta(t, 1.0/6, points[0].Lon, 1e-9)
	assert.InDelta(t, 1.0/6, points[0].Lat, 1e-9)
	assert.InDelta(t, 5.0/6, points[8].Lon, 1e-9)
	assert.InDelta(t, 5.0/6, points[8].Lat, 1e-9)

	for _, p := range points {
		assert.True(t, area.Contains(p), "sources stay inside the area")
	}
}

func TestSyntheticSourcesAspectRatio(t *testing.T) {
	// Twice as wide as tall: columns outnumber rows.
	area := geo.Bounds{North: 1, South: 0, West: 0, East: 2}
	points := pipeline.SyntheticSources(area, 8)

	// sqrt(8*2)=4 columns, 2 rows.
	assert.Len(t, points, 8)
}

func TestEndToEndSingleScopeSinglePollutant(t *testing.T) {
	// Three known PM10 stations, one 5x5 scope: exactly one artifact
	// and a NaN-free surface.
	renderer := render.NewMemoryRenderer()
	artifacts := datamap.NewInMemoryRepository()

	sched := pipeline.NewScheduler(pipeline.SchedulerConfig{
		Engine:    kriging.NewEngine(kriging.EngineConfig{}),
		Renderer:  renderer,
		Artifacts: artifacts,
		Scopes: []pipeline.Scope{{
			Name:       "Puglia",
			Bounds:     geo.PugliaBounds,
			Resolution: 5,
			Profile:    kriging.WholeRegionProfile,
		}},
		Pollutants: []measurement.Pollutant{measurement.PollutantPM10},
	})

	result := sched.Run(context.Background(), fullBatch())

	require.Len(t, result.Scopes, 1)
	require.NoError(t, result.Scopes[0].Err)
	require.Len(t, result.Scopes[0].Artifacts, 1)
	assert.Len(t, artifacts.All(), 1)

	requests := renderer.Requests()
	require.Len(t, requests, 1)
	for _, row := range requests[0].Values {
		for _, v := range row {
			assert.False(t, math.IsNaN(v), "surface must be NaN-free")
		}
	}
}
