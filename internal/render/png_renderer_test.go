package render_test

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/render"
)

func testRequest(t *testing.T) render.Request {
	t.Helper()

	grid, err := geo.MakeGrid(geo.LecceBounds, 4)
	require.NoError(t, err)

	return render.Request{
		Grid: grid,
		Values: [][]float64{
			{1, 2, 3, 4},
			{2, 3, 4, 5},
			{3, 4, 5, 6},
			{4, 5, 6, 7},
		},
		Coords:       []geo.Point{{Lon: 18.1, Lat: 40.35}},
		SourceValues: []float64{42},
		Label:        "pm10",
		Region:       "Lecce",
		Bounds:       geo.LecceBounds,
		Timestamp:    time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC),
	}
}

func TestPNGRendererWritesArtifact(t *testing.T) {
	out := t.TempDir()
	r := render.NewPNGRenderer(render.PNGRendererConfig{OutDir: out, CellSize: 4})

	path, err := r.Render(context.Background(), testRequest(t))
	require.NoError(t, err)

	expected := filepath.Join(out, "Lecce", "2025-08-25T10", "kriging_map_pm10.png")
	assert.Equal(t, expected, path)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestPNGRendererFlatSurface(t *testing.T) {
	req := testRequest(t)
	req.Values = [][]float64{{5, 5}, {5, 5}}

	r := render.NewPNGRenderer(render.PNGRendererConfig{OutDir: t.TempDir()})

	_, err := r.Render(context.Background(), req)
	assert.NoError(t, err)
}

func TestPNGRendererEmptySurface(t *testing.T) {
	req := testRequest(t)
	req.Values = nil

	r := render.NewPNGRenderer(render.PNGRendererConfig{OutDir: t.TempDir()})

	_, err := r.Render(context.Background(), req)
	assert.Error(t, err)
}

func TestMemoryRendererRecordsRequests(t *testing.T) {
	r := render.NewMemoryRenderer()

	loc, err := r.Render(context.Background(), render.Request{Region: "Puglia", Label: "pm2dot5", Values: [][]float64{{1}}})
	require.NoError(t, err)

	assert.Contains(t, loc, "memory://Puglia/pm2dot5")
	assert.Len(t, r.Requests(), 1)
}
