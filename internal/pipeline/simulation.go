package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/kriging"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/render"
)

// ErrInvalidSimulation is returned for simulation requests that cannot
// produce a source layout.
var ErrInvalidSimulation = errors.New("invalid simulation request")

// TreeAbsorption is the assumed absorption capacity of the simulated
// tree cover, per pollutant, in the pollutant's native unit.
var TreeAbsorption = map[measurement.Pollutant]float64{
	measurement.PollutantC6H6: 1.1,
	measurement.PollutantCO:   0.7,
	measurement.PollutantH2S:  0.003,
	measurement.PollutantIPA:  0.018,
	measurement.PollutantNO2:  28.0,
	measurement.PollutantO3:   62.0,
	measurement.PollutantPM10: 26.0,
	measurement.PollutantPM25: 15.0,
	measurement.PollutantSO2:  1.6,
}

// SimulationRequest describes one what-if tree-planting run: the
// planted area and how many synthetic absorption points to spread over
// it.
type SimulationRequest struct {
	Area    geo.Bounds
	NPoints int

	// Seed drives the overlay perturbation. Zero keeps the default.
	Seed uint64
}

// SimulationResult is one simulation run's output: the adjusted map
// locations per pollutant, in interpolation order.
type SimulationResult struct {
	Artifacts []Artifact
}

// SimulatorConfig holds configuration for the tree-absorption
// simulator.
type SimulatorConfig struct {
	Engine   *kriging.Engine
	Renderer render.Renderer
	Logger   zerolog.Logger
	Clock    clockwork.Clock
	Metrics  *Metrics

	// Scope the simulation interpolates in. Default: the Lecce
	// subregion scope.
	Scope Scope

	// Pollutants to simulate. Default: all nine.
	Pollutants []measurement.Pollutant
}

// Simulator composes the interpolation engine with a tree-absorption
// overlay to answer "what if this area were planted with trees".
type Simulator struct {
	engine     *kriging.Engine
	renderer   render.Renderer
	logger     zerolog.Logger
	clock      clockwork.Clock
	metrics    *Metrics
	scope      Scope
	pollutants []measurement.Pollutant
}

// NewSimulator creates a tree-absorption simulator.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	scope := cfg.Scope
	if scope.Name == "" {
		scope = DefaultScopes()[1]
	}
	pollutants := cfg.Pollutants
	if pollutants == nil {
		pollutants = measurement.AllPollutants()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Simulator{
		engine:     cfg.Engine,
		renderer:   cfg.Renderer,
		logger:     cfg.Logger,
		clock:      clock,
		metrics:    cfg.Metrics,
		scope:      scope,
		pollutants: pollutants,
	}
}

// Run simulates tree absorption against one day's measurements. For
// each pollutant it fits the measured surface, overlays the synthetic
// absorption sources, renders the overlay as a reference artifact, and
// renders the adjusted surface under the "Simulation" label.
func (s *Simulator) Run(ctx context.Context, ms []*measurement.Measurement, req SimulationRequest) (*SimulationResult, error) {
	if req.NPoints < 1 {
		return nil, fmt.Errorf("%w: point count must be positive", ErrInvalidSimulation)
	}

	selected := s.scope.Select(ms)
	sources := SyntheticSources(req.Area, req.NPoints)

	grid, err := geo.MakeGrid(s.scope.Bounds, s.scope.Resolution)
	if err != nil {
		return nil, err
	}

	result := &SimulationResult{}
	for _, pollutant := range s.pollutants {
		coords, values := measurement.CoordsAndValues(selected, pollutant)

		fitted, err := s.engine.FitPredict(coords, values, grid, s.scope.Profile)
		if err != nil {
			return nil, fmt.Errorf("interpolating %s: %w", pollutant, err)
		}

		sourceValues := make([]float64, len(sources))
		for i := range sourceValues {
			sourceValues[i] = TreeAbsorption[pollutant]
		}

		surfaces, err := s.engine.ApplyOverlay(fitted, grid, kriging.OverlayInput{
			SourceCoords: sources,
			SourceValues: sourceValues,
			Seed:         req.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("overlaying %s: %w", pollutant, err)
		}

		// The raw absorption surface is kept as a diagnostics artifact.
		if _, err := s.renderer.Render(ctx, render.Request{
			Grid:         grid,
			Values:       surfaces.Overlay.Mean,
			Coords:       sources,
			SourceValues: sourceValues,
			Label:        string(pollutant),
			Region:       "TreesModel",
			Bounds:       s.scope.Bounds,
			Timestamp:    s.clock.Now(),
			ExtraInfo:    "normalized tree absorption overlay",
		}); err != nil {
			return nil, fmt.Errorf("rendering overlay for %s: %w", pollutant, err)
		}

		location, err := s.renderer.Render(ctx, render.Request{
			Grid:         grid,
			Values:       surfaces.Adjusted.Mean,
			Coords:       coords,
			SourceValues: values,
			Label:        string(pollutant),
			Region:       "Simulation",
			Bounds:       s.scope.Bounds,
			Timestamp:    s.clock.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("rendering simulation for %s: %w", pollutant, err)
		}

		s.metrics.RecordMap(ctx, "Simulation", string(pollutant))
		result.Artifacts = append(result.Artifacts, Artifact{Pollutant: pollutant, Location: location})
	}

	s.logger.Info().
		Int("maps", len(result.Artifacts)).
		Int("sources", len(sources)).
		Msg("tree absorption simulation completed")
	return result, nil
}

// SyntheticSources spreads roughly nPoints cell-centered source points
// over the area, with the column/row split following the area's aspect
// ratio.
func SyntheticSources(area geo.Bounds, nPoints int) []geo.Point {
	width := area.East - area.West
	height := area.North - area.South

	aspect := 1.0
	if height != 0 {
		aspect = width / height
	}

	nCols := int(math.Round(math.Sqrt(float64(nPoints) * aspect)))
	nRows := nPoints
	if nCols != 0 {
		nRows = int(math.Round(float64(nPoints) / float64(nCols)))
	}
	if nCols == 0 {
		nCols = 1
	}
	if nRows == 0 {
		nRows = 1
	}

	points := make([]geo.Point, 0, nRows*nCols)
	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			points = append(points, geo.Point{
				Lat: area.South + (float64(i)+0.5)*height/float64(nRows),
				Lon: area.West + (float64(j)+0.5)*width/float64(nCols),
			})
		}
	}
	return points
}
