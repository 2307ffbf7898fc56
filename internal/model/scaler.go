package model

import (
	"errors"
	"fmt"
)

// ErrScalerDimension is returned when a vector does not match the
// dimensionality the scaler was fitted on.
var ErrScalerDimension = errors.New("scaler dimension mismatch")

// StandardScaler holds the fitted mean and scale of a standardizing
// transform. Values are exported by the training pipeline; the Go side
// only applies them.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform standardizes a vector: (x - mean) / scale.
func (s StandardScaler) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.Mean) || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("%w: got %d values, fitted on %d", ErrScalerDimension, len(v), len(s.Mean))
	}

	out := make([]float64, len(v))
	for i, x := range v {
		sc := s.Scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = (x - s.Mean[i]) / sc
	}
	return out, nil
}

// InverseTransform maps a standardized vector back to the original
// units: x*scale + mean.
func (s StandardScaler) InverseTransform(v []float64) ([]float64, error) {
	if len(v) != len(s.Mean) || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("%w: got %d values, fitted on %d", ErrScalerDimension, len(v), len(s.Mean))
	}

	out := make([]float64, len(v))
	for i, x := range v {
		sc := s.Scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = x*sc + s.Mean[i]
	}
	return out, nil
}
