package model_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/model"
)

type stubHealthModel struct{}

func (stubHealthModel) RequiredFeatures(context.Context) ([]string, error) { return nil, nil }
func (stubHealthModel) Predict(_ context.Context, rows [][]float64) ([]float64, error) {
	return make([]float64, len(rows)), nil
}

type stubSequenceModel struct{}

func (stubSequenceModel) Predict(context.Context, [][]float64, []float64) ([]float64, error) {
	return nil, nil
}

const manifestJSON = `{
  "scalers": {
    "meteo":      {"mean": [290, 50, 3], "scale": [10, 20, 2]},
    "pollutant":  {"mean": [20, 30, 15, 40, 5], "scale": [10, 15, 8, 20, 3]},
    "year":       {"mean": [2022], "scale": [2]},
    "coordinate": {"mean": [40.3, 18.1], "scale": [0.5, 0.5]}
  },
  "sequences": {
    "40.35_18.17": [[0.1, 0.2, 0.3, 0.4, 0.5], [0.2, 0.3, 0.4, 0.5, 0.6]]
  },
  "stations": [{"lat": 40.35, "lon": 18.17}]
}`

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o600))
	return path
}

func TestLoadBundle(t *testing.T) {
	b, err := model.LoadBundle(writeManifest(t), stubHealthModel{}, stubSequenceModel{})
	require.NoError(t, err)

	assert.Len(t, b.Stations, 1)
	assert.Equal(t, []float64{2022}, b.Scalers.Year.Mean)

	seq, err := b.SequenceFor(40.35, 18.17)
	require.NoError(t, err)
	require.Len(t, seq, 2)
}

func TestSequenceForReturnsCopy(t *testing.T) {
	b, err := model.LoadBundle(writeManifest(t), stubHealthModel{}, stubSequenceModel{})
	require.NoError(t, err)

	seq, err := b.SequenceFor(40.35, 18.17)
	require.NoError(t, err)

	seq[0][0] = 99

	again, err := b.SequenceFor(40.35, 18.17)
	require.NoError(t, err)
	assert.Equal(t, 0.1, again[0][0])
}

func TestSequenceForUnknownStation(t *testing.T) {
	b, err := model.LoadBundle(writeManifest(t), stubHealthModel{}, stubSequenceModel{})
	require.NoError(t, err)

	_, err = b.SequenceFor(0, 0)
	assert.ErrorIs(t, err, model.ErrNoSequence)
}

func TestLoadBundleRejectsEmptyStations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stations": []}`), 0o600))

	_, err := model.LoadBundle(path, stubHealthModel{}, stubSequenceModel{})
	assert.Error(t, err)
}

func TestSequenceKey(t *testing.T) {
	assert.Equal(t, "40.35_18.17", model.SequenceKey(40.35, 18.17))
	assert.Equal(t, "-1_0", model.SequenceKey(-1, 0))
}
