package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/geo"
)

func TestMakeGrid_Shape(t *testing.T) {
	bounds := geo.Bounds{North: 42.1, South: 39.7, West: 14.7, East: 18.8}

	grid, err := geo.MakeGrid(bounds, 50)
	require.NoError(t, err)

	assert.Equal(t, 50, grid.Resolution)
	assert.Len(t, grid.Lon, 50)
	assert.Len(t, grid.Lat, 50)
	assert.Len(t, grid.Points, 2500)
	for i := 0; i < 50; i++ {
		assert.Len(t, grid.Lon[i], 50)
		assert.Len(t, grid.Lat[i], 50)
	}
}

func TestMakeGrid_SpansBounds(t *testing.T) {
	bounds := geo.Bounds{North: 40.4, South: 40.3, West: 18.0, East: 18.3}

	grid, err := geo.MakeGrid(bounds, 5)
	require.NoError(t, err)

	// Corners of the mesh hit the bounding box exactly.
	assert.InDelta(t, 18.0, grid.Lon[0][0], 1e-12)
	assert.InDelta(t, 18.3, grid.Lon[0][4], 1e-12)
	assert.InDelta(t, 40.3, grid.Lat[0][0], 1e-12)
	assert.InDelta(t, 40.4, grid.Lat[4][0], 1e-12)

	// Flat point list is row-major with longitude varying fastest.
	assert.Equal(t, grid.Lon[0][1], grid.Points[1].Lon)
	assert.Equal(t, grid.Lat[0][0], grid.Points[1].Lat)
	assert.Equal(t, grid.Lat[1][0], grid.Points[5].Lat)
}

func TestMakeGrid_Deterministic(t *testing.T) {
	bounds := geo.Bounds{North: 42.1, South: 39.7, West: 14.7, East: 18.8}

	a, err := geo.MakeGrid(bounds, 10)
	require.NoError(t, err)
	b, err := geo.MakeGrid(bounds, 10)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMakeGrid_RejectsTooSmallResolution(t *testing.T) {
	bounds := geo.Bounds{North: 1, South: 0, West: 0, East: 1}

	for _, resolution := range []int{-1, 0, 1} {
		_, err := geo.MakeGrid(bounds, resolution)
		assert.ErrorIs(t, err, geo.ErrInvalidResolution)
	}
}

func TestHaversineKm(t *testing.T) {
	lecce := geo.Point{Lon: 18.17, Lat: 40.35}
	bari := geo.Point{Lon: 16.87, Lat: 41.12}

	d := geo.HaversineKm(lecce, bari)
	// Roughly 138km between the two city centers.
	assert.InDelta(t, 138, d, 5)

	assert.Zero(t, geo.HaversineKm(lecce, lecce))
	assert.InDelta(t, geo.HaversineKm(lecce, bari), geo.HaversineKm(bari, lecce), 1e-9)
}

func TestBoundsContains(t *testing.T) {
	bounds := geo.Bounds{North: 42.1, South: 39.7, West: 14.7, East: 18.8}

	assert.True(t, bounds.Contains(geo.Point{Lon: 18.17, Lat: 40.35}))
	assert.False(t, bounds.Contains(geo.Point{Lon: 4.9, Lat: 52.37}))
}
