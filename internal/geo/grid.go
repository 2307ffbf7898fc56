// Package geo provides geographic primitives: bounding boxes, sampling
// grids and distance calculations.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidResolution is returned when a grid is requested with fewer
// than two samples per side.
var ErrInvalidResolution = errors.New("grid resolution must be at least 2")

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lon float64
	Lat float64
}

// Bounds is a geographic bounding box in decimal degrees.
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// Contains reports whether p lies within the bounding box.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lon >= b.West && p.Lon <= b.East
}

// Grid is a regular lon/lat sampling grid over a bounding box.
//
// Lon and Lat are resolution×resolution coordinate matrices: row i holds
// the i-th latitude repeated across columns, column j the j-th longitude
// repeated down rows. Points is the same mesh flattened row-major
// (longitude varies fastest), in the order prediction surfaces are
// evaluated.
type Grid struct {
	Resolution int
	Lon        [][]float64
	Lat        [][]float64
	Points     []Point
}

// MakeGrid builds a regular sampling grid with `resolution` evenly spaced
// longitudes over [west, east] and latitudes over [south, north].
func MakeGrid(bounds Bounds, resolution int) (*Grid, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidResolution, resolution)
	}

	lons := linspace(bounds.West, bounds.East, resolution)
	lats := linspace(bounds.South, bounds.North, resolution)

	g := &Grid{
		Resolution: resolution,
		Lon:        make([][]float64, resolution),
		Lat:        make([][]float64, resolution),
		Points:     make([]Point, 0, resolution*resolution),
	}

	for i := 0; i < resolution; i++ {
		g.Lon[i] = make([]float64, resolution)
		g.Lat[i] = make([]float64, resolution)
		for j := 0; j < resolution; j++ {
			g.Lon[i][j] = lons[j]
			g.Lat[i][j] = lats[i]
			g.Points = append(g.Points, Point{Lon: lons[j], Lat: lats[i]})
		}
	}

	return g, nil
}

// linspace returns n evenly spaced values over [start, stop], inclusive.
func linspace(start, stop float64, n int) []float64 {
	vals := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	// Guard against accumulated floating point drift on the last sample.
	vals[n-1] = stop
	return vals
}

// HaversineKm calculates the great-circle distance between two points
// in kilometers.
func HaversineKm(a, b Point) float64 {
	const earthRadiusKm = 6371

	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}
