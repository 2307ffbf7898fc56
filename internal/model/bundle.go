// Package model holds the pretrained-model bundle: the remote
// health-index and sequence-forecast models, the fitted scalers they
// were trained with, and the per-station rolling sequences the
// forecaster starts from.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

var (
	// ErrMissingFeature is returned when a feature required by the
	// health model is absent from the caller's feature table.
	ErrMissingFeature = errors.New("required model feature missing")

	// ErrNoSequence is returned when a station has no stored rolling
	// sequence in the bundle.
	ErrNoSequence = errors.New("no stored sequence for station")
)

// HealthModel scores feature vectors into health-index values. The
// model declares its own required feature ordering; callers must
// assemble rows in exactly that order.
type HealthModel interface {
	RequiredFeatures(ctx context.Context) ([]string, error)
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

// SequenceModel predicts the next scaled multi-pollutant vector from a
// rolling window plus exogenous features (cyclic temporal encoding,
// scaled weather, scaled coordinates).
type SequenceModel interface {
	Predict(ctx context.Context, window [][]float64, exogenous []float64) ([]float64, error)
}

// Station is one training-station location known to the sequence model.
type Station struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Scalers are the four fitted standardizers exported alongside the
// models.
type Scalers struct {
	Meteo      StandardScaler `json:"meteo"`
	Pollutant  StandardScaler `json:"pollutant"`
	Year       StandardScaler `json:"year"`
	Coordinate StandardScaler `json:"coordinate"`
}

// Bundle is the immutable set of pretrained artifacts the estimator and
// forecaster are constructed with. It is loaded once at startup and
// shared; the rolling sequences it holds are snapshots — forecasting
// runs copy them before mutating.
type Bundle struct {
	Health   HealthModel
	Sequence SequenceModel
	Scalers  Scalers

	// Sequences maps SequenceKey(lat, lon) to the station's rolling
	// window of scaled pollutant vectors, newest last.
	Sequences map[string][][]float64

	// Stations are the training-station coordinates, in the order the
	// sequence model was trained on.
	Stations []Station
}

// SequenceKey derives the lookup key for a station's stored sequence.
func SequenceKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "_" + strconv.FormatFloat(lon, 'f', -1, 64)
}

// SequenceFor returns a copy of the stored rolling sequence for a
// station, so callers can slide it without touching the shared bundle.
func (b *Bundle) SequenceFor(lat, lon float64) ([][]float64, error) {
	seq, ok := b.Sequences[SequenceKey(lat, lon)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSequence, SequenceKey(lat, lon))
	}

	out := make([][]float64, len(seq))
	for i, row := range seq {
		out[i] = append([]float64(nil), row...)
	}
	return out, nil
}

// Manifest is the on-disk JSON description of the bundle: everything
// except the models themselves, which are served remotely.
type Manifest struct {
	Scalers   Scalers                `json:"scalers"`
	Sequences map[string][][]float64 `json:"sequences"`
	Stations  []Station              `json:"stations"`
}

// LoadBundle reads a bundle manifest and binds it to the given remote
// models.
func LoadBundle(path string, health HealthModel, sequence SequenceModel) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing model manifest: %w", err)
	}

	if len(m.Stations) == 0 {
		return nil, errors.New("model manifest declares no training stations")
	}

	return &Bundle{
		Health:    health,
		Sequence:  sequence,
		Scalers:   m.Scalers,
		Sequences: m.Sequences,
		Stations:  m.Stations,
	}, nil
}
