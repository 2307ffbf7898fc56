package kriging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOverlay_FlatSurfaceBecomesZero(t *testing.T) {
	grid := [][]float64{
		{3, 3, 3},
		{3, 3, 3},
		{3, 3, 3},
	}

	normalizeOverlay(grid)

	for i := range grid {
		for j := range grid[i] {
			assert.Zero(t, grid[i][j])
		}
	}
}

func TestNormalizeOverlay_MinToZeroMaxPreserved(t *testing.T) {
	grid := [][]float64{
		{2, 4},
		{6, 10},
	}

	normalizeOverlay(grid)

	assert.InDelta(t, 0.0, grid[0][0], 1e-12)
	assert.InDelta(t, 10.0, grid[1][1], 1e-12)
	assert.InDelta(t, 2.5, grid[0][1], 1e-12)
	assert.InDelta(t, 5.0, grid[1][0], 1e-12)
}
