package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/forecast"
	"github.com/ariamap/ariamap/internal/geo"
)

func TestDedupeMergesNearbyStations(t *testing.T) {
	coords := []geo.Point{
		{Lon: 18.10, Lat: 40.30},
		{Lon: 18.20, Lat: 40.30}, // within 0.21 of the first
		{Lon: 17.00, Lat: 41.00}, // far away
	}

	centroids := forecast.Dedupe(coords, 0)

	require.Len(t, centroids, 2)
	assert.InDelta(t, 18.15, centroids[0].Lon, 1e-9)
	assert.InDelta(t, 40.30, centroids[0].Lat, 1e-9)
	assert.Equal(t, geo.Point{Lon: 17.00, Lat: 41.00}, centroids[1])
}

func TestDedupeKeepsSingletons(t *testing.T) {
	coords := []geo.Point{
		{Lon: 18.1, Lat: 40.3},
		{Lon: 16.8, Lat: 41.1},
		{Lon: 15.5, Lat: 41.5},
	}

	centroids := forecast.Dedupe(coords, 0)

	// No noise bucket: every isolated point survives as its own cluster.
	assert.Equal(t, coords, centroids)
}

func TestDedupeChainsTransitively(t *testing.T) {
	// a-b and b-c are within eps, a-c is not: one component of three.
	coords := []geo.Point{
		{Lon: 18.00, Lat: 40.30},
		{Lon: 18.20, Lat: 40.30},
		{Lon: 18.40, Lat: 40.30},
	}

	centroids := forecast.Dedupe(coords, 0)

	require.Len(t, centroids, 1)
	assert.InDelta(t, 18.20, centroids[0].Lon, 1e-9)
}

func TestDedupeEmpty(t *testing.T) {
	assert.Nil(t, forecast.Dedupe(nil, 0))
}

func TestDedupeCustomEps(t *testing.T) {
	coords := []geo.Point{
		{Lon: 18.10, Lat: 40.30},
		{Lon: 18.20, Lat: 40.30},
	}

	assert.Len(t, forecast.Dedupe(coords, 0.05), 2)
	assert.Len(t, forecast.Dedupe(coords, 0.5), 1)
}
