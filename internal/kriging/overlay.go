package kriging

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ariamap/ariamap/internal/geo"
)

// OverlayInput describes the synthetic absorption sources for a
// tree-absorption overlay.
type OverlayInput struct {
	// SourceCoords and SourceValues are the synthetic source points and
	// their absorption capacities.
	SourceCoords []geo.Point
	SourceValues []float64

	// Seed drives the Gaussian perturbation of the source values.
	// Zero selects the default seed so repeated runs stay reproducible.
	Seed uint64
}

// OverlaySurfaces is the outcome of applying an absorption overlay.
type OverlaySurfaces struct {
	// Overlay is the normalized absorption surface, independently
	// useful as a diagnostics artifact.
	Overlay *Result

	// Adjusted is the primary surface with the overlay subtracted,
	// floored at zero. Its Std grid is the primary's, untouched: the
	// overlay models deterministic mitigation, not added uncertainty.
	Adjusted *Result
}

const defaultOverlaySeed = 42

// ApplyOverlay fits a tightly localized absorption surface over the
// synthetic sources, normalizes it so its minimum maps to zero with the
// maximum preserved, then subtracts it element-wise from the primary
// prediction, flooring at zero.
//
// Each source value receives an independent Gaussian perturbation
// (mean 0, scale 0.01) before fitting; all sources share one constant
// absorption capacity per pollutant, and a zero-variance target would
// degenerate the fit.
func (e *Engine) ApplyOverlay(primary *Result, grid *geo.Grid, in OverlayInput) (*OverlaySurfaces, error) {
	if len(in.SourceCoords) == 0 {
		return nil, fmt.Errorf("%w: no overlay source points", ErrInsufficientData)
	}
	if len(in.SourceCoords) != len(in.SourceValues) {
		return nil, fmt.Errorf("overlay coords/values length mismatch: %d vs %d",
			len(in.SourceCoords), len(in.SourceValues))
	}

	seed := in.Seed
	if seed == 0 {
		seed = defaultOverlaySeed
	}
	oscillation := distuv.Normal{Mu: 0, Sigma: 0.01, Src: rand.NewSource(seed)}

	perturbed := make([]float64, len(in.SourceValues))
	for i, v := range in.SourceValues {
		perturbed[i] = v + oscillation.Rand()
	}

	overlay, err := e.FitPredict(in.SourceCoords, perturbed, grid, OverlayProfile)
	if err != nil {
		return nil, err
	}

	normalizeOverlay(overlay.Mean)

	adjusted := &Result{
		Mean: make([][]float64, len(primary.Mean)),
		Std:  primary.Std,
	}
	for i, row := range primary.Mean {
		adjusted.Mean[i] = make([]float64, len(row))
		for j, v := range row {
			diff := v - overlay.Mean[i][j]
			if diff < 0 {
				diff = 0
			}
			adjusted.Mean[i][j] = diff
		}
	}

	return &OverlaySurfaces{Overlay: overlay, Adjusted: adjusted}, nil
}

// normalizeOverlay rescales the surface in place so its minimum maps to
// zero and its maximum is preserved. A flat surface (max == min) has no
// usable structure and becomes an all-zero overlay.
func normalizeOverlay(grid [][]float64) {
	minVal, maxVal := grid[0][0], grid[0][0]
	for _, row := range grid {
		for _, v := range row {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}

	if maxVal == minVal {
		for i := range grid {
			for j := range grid[i] {
				grid[i][j] = 0
			}
		}
		return
	}

	scale := maxVal / (maxVal - minVal)
	for i := range grid {
		for j := range grid[i] {
			grid[i][j] = (grid[i][j] - minVal) * scale
		}
	}
}
