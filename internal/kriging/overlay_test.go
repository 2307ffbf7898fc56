package kriging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/kriging"
)

func constantGrid(resolution int, value float64) [][]float64 {
	grid := make([][]float64, resolution)
	for i := range grid {
		grid[i] = make([]float64, resolution)
		for j := range grid[i] {
			grid[i][j] = value
		}
	}
	return grid
}

func TestApplyOverlay_SubtractsAndFloorsAtZero(t *testing.T) {
	engine := newTestEngine()

	grid, err := geo.MakeGrid(lecceBounds, 8)
	require.NoError(t, err)

	primary := &kriging.Result{
		Mean: constantGrid(8, 5.0),
		Std:  constantGrid(8, 0.5),
	}

	// Absorption sources concentrated in one corner so the overlay has
	// real spatial structure.
	sources := []geo.Point{
		{Lon: 18.08, Lat: 40.32},
		{Lon: 18.09, Lat: 40.32},
		{Lon: 18.085, Lat: 40.325},
	}
	values := []float64{26, 26, 26}

	out, err := engine.ApplyOverlay(primary, grid, kriging.OverlayInput{
		SourceCoords: sources,
		SourceValues: values,
	})
	require.NoError(t, err)

	overlayMin := out.Overlay.Mean[0][0]
	for i := range out.Overlay.Mean {
		for j := range out.Overlay.Mean[i] {
			if out.Overlay.Mean[i][j] < overlayMin {
				overlayMin = out.Overlay.Mean[i][j]
			}
			assert.GreaterOrEqual(t, out.Adjusted.Mean[i][j], 0.0)
			assert.LessOrEqual(t, out.Adjusted.Mean[i][j], 5.0)
		}
	}
	// Normalization maps the overlay minimum to zero.
	assert.InDelta(t, 0.0, overlayMin, 1e-9)

	// Primary std is carried through untouched.
	assert.Equal(t, primary.Std, out.Adjusted.Std)
}

func TestApplyOverlay_Deterministic(t *testing.T) {
	engine := newTestEngine()

	grid, err := geo.MakeGrid(lecceBounds, 6)
	require.NoError(t, err)

	primary := &kriging.Result{
		Mean: constantGrid(6, 30),
		Std:  constantGrid(6, 1),
	}
	in := kriging.OverlayInput{
		SourceCoords: []geo.Point{{Lon: 18.1, Lat: 40.33}, {Lon: 18.2, Lat: 40.38}},
		SourceValues: []float64{15, 15},
		Seed:         7,
	}

	a, err := engine.ApplyOverlay(primary, grid, in)
	require.NoError(t, err)
	b, err := engine.ApplyOverlay(primary, grid, in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestApplyOverlay_NoSources(t *testing.T) {
	engine := newTestEngine()

	grid, err := geo.MakeGrid(lecceBounds, 5)
	require.NoError(t, err)

	primary := &kriging.Result{Mean: constantGrid(5, 1), Std: constantGrid(5, 1)}

	_, err = engine.ApplyOverlay(primary, grid, kriging.OverlayInput{})
	assert.ErrorIs(t, err, kriging.ErrInsufficientData)
}
