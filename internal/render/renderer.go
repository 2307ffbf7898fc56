// Package render turns interpolated surfaces into stored heatmap
// images.
package render

import (
	"context"
	"time"

	"github.com/ariamap/ariamap/internal/geo"
)

// Request carries everything needed to draw one surface: the sampling
// grid, the interpolated values shaped like it, and the source stations
// for annotation.
type Request struct {
	Grid   *geo.Grid
	Values [][]float64

	Coords       []geo.Point
	SourceValues []float64

	// Label names the rendered quantity (a pollutant, or a tag like
	// "health_index" or "TreesModel").
	Label string

	Region    string
	Bounds    geo.Bounds
	Timestamp time.Time

	// ExtraInfo is free-form text carried into the artifact record.
	ExtraInfo string
}

// Renderer draws a surface and returns the stored image location. Pure
// function of the request; safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, req Request) (string, error)
}
