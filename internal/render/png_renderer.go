package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// PNGRenderer rasterizes surfaces into PNG heatmaps on local disk,
// organized as <out>/<region>/<yyyy-mm-ddThh>/kriging_map_<label>.png.
type PNGRenderer struct {
	outDir   string
	cellSize int
	logger   zerolog.Logger
}

// PNGRendererConfig holds configuration for the PNG renderer.
type PNGRendererConfig struct {
	// OutDir is the artifact root directory. Default: "maps".
	OutDir string

	// CellSize is the square pixel size of one grid cell. Default: 8.
	CellSize int

	Logger zerolog.Logger
}

// NewPNGRenderer creates a PNG heatmap renderer.
func NewPNGRenderer(cfg PNGRendererConfig) *PNGRenderer {
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "maps"
	}
	cellSize := cfg.CellSize
	if cellSize == 0 {
		cellSize = 8
	}
	return &PNGRenderer{outDir: outDir, cellSize: cellSize, logger: cfg.Logger}
}

// Render draws the surface as a colored heatmap with station markers
// and writes it under the renderer's output directory.
func (r *PNGRenderer) Render(_ context.Context, req Request) (string, error) {
	if len(req.Values) == 0 || len(req.Values[0]) == 0 {
		return "", fmt.Errorf("rendering %s/%s: empty surface", req.Region, req.Label)
	}

	dir := filepath.Join(r.outDir, req.Region, req.Timestamp.UTC().Format("2006-01-02T15"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}
	path := filepath.Join(dir, "kriging_map_"+req.Label+".png")

	img := r.draw(req)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating artifact file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding heatmap: %w", err)
	}

	r.logger.Debug().
		Str("region", req.Region).
		Str("label", req.Label).
		Str("path", path).
		Msg("surface rendered")

	return path, nil
}

func (r *PNGRenderer) draw(req Request) *image.RGBA {
	rows := len(req.Values)
	cols := len(req.Values[0])

	lo, hi := surfaceRange(req.Values)

	img := image.NewRGBA(image.Rect(0, 0, cols*r.cellSize, rows*r.cellSize))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c := heatColor(normalize(req.Values[i][j], lo, hi))
			// Row 0 is the southern grid edge; flip so north is up.
			y0 := (rows - 1 - i) * r.cellSize
			x0 := j * r.cellSize
			for y := y0; y < y0+r.cellSize; y++ {
				for x := x0; x < x0+r.cellSize; x++ {
					img.Set(x, y, c)
				}
			}
		}
	}

	r.markStations(img, req, rows, cols)
	return img
}

// markStations overlays a dark marker on each source station cell.
func (r *PNGRenderer) markStations(img *image.RGBA, req Request, rows, cols int) {
	lonSpan := req.Bounds.East - req.Bounds.West
	latSpan := req.Bounds.North - req.Bounds.South
	if lonSpan <= 0 || latSpan <= 0 {
		return
	}

	for _, p := range req.Coords {
		j := int((p.Lon - req.Bounds.West) / lonSpan * float64(cols-1))
		i := int((p.Lat - req.Bounds.South) / latSpan * float64(rows-1))
		if i < 0 || i >= rows || j < 0 || j >= cols {
			continue
		}

		cx := j*r.cellSize + r.cellSize/2
		cy := (rows-1-i)*r.cellSize + r.cellSize/2
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				img.Set(cx+dx, cy+dy, color.RGBA{A: 255})
			}
		}
	}
}

func surfaceRange(values [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range values {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// heatColor maps [0,1] onto a blue-to-red gradient through green.
func heatColor(t float64) color.RGBA {
	t = math.Min(math.Max(t, 0), 1)

	var r, g, b float64
	switch {
	case t < 0.5:
		// blue -> green
		s := t * 2
		g = s
		b = 1 - s
	default:
		// green -> red
		s := (t - 0.5) * 2
		r = s
		g = 1 - s
	}

	return color.RGBA{
		R: uint8(math.Round(r * 255)),
		G: uint8(math.Round(g * 255)),
		B: uint8(math.Round(b * 255)),
		A: 255,
	}
}
