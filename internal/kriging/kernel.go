// Package kriging fits Gaussian-process surfaces from sparse station
// observations and predicts mean and uncertainty over a sampling grid.
package kriging

import (
	"errors"
	"fmt"
	"math"
)

// Kriging errors.
var (
	// ErrInsufficientData is returned when a fit is attempted with no
	// usable observation points.
	ErrInsufficientData = errors.New("insufficient data for interpolation")

	// ErrInvalidProfile is returned for an internally inconsistent
	// kernel profile. This indicates a configuration defect, not a
	// transient data problem.
	ErrInvalidProfile = errors.New("invalid kernel profile")
)

// KernelProfile holds the covariance hyperparameters for one spatial
// scope: the RBF length-scale with its optimization bounds plus the
// white-noise level. Length-scale units are coordinate degrees.
type KernelProfile struct {
	LengthScale    float64
	LengthScaleMin float64
	LengthScaleMax float64
	NoiseLevel     float64
}

// The three profiles in use. Whole-region maps favor a broad, smooth
// surface; subregion maps resolve street-scale structure; the overlay
// profile is tighter still so absorption sources stay sharply localized.
var (
	WholeRegionProfile = KernelProfile{
		LengthScale:    0.6,
		LengthScaleMin: 0.1,
		LengthScaleMax: 0.4,
		NoiseLevel:     0.2,
	}

	SubregionProfile = KernelProfile{
		LengthScale:    0.15,
		LengthScaleMin: 0.01,
		LengthScaleMax: 0.02,
		NoiseLevel:     0.06,
	}

	OverlayProfile = KernelProfile{
		LengthScale:    0.008,
		LengthScaleMin: 0.005,
		LengthScaleMax: 0.02,
		NoiseLevel:     0.005,
	}
)

// Validate rejects profiles whose parameters cannot describe a kernel:
// non-positive scales or bounds, inverted bounds, negative noise. A
// default length-scale outside its bounds is allowed and clipped into
// the bounds at fit time.
func (p KernelProfile) Validate() error {
	if p.LengthScale <= 0 {
		return fmt.Errorf("%w: length scale %v must be positive", ErrInvalidProfile, p.LengthScale)
	}
	if p.LengthScaleMin <= 0 || p.LengthScaleMax <= 0 {
		return fmt.Errorf("%w: length scale bounds (%v, %v) must be positive",
			ErrInvalidProfile, p.LengthScaleMin, p.LengthScaleMax)
	}
	if p.LengthScaleMin > p.LengthScaleMax {
		return fmt.Errorf("%w: length scale bounds (%v, %v) are inverted",
			ErrInvalidProfile, p.LengthScaleMin, p.LengthScaleMax)
	}
	if p.NoiseLevel < 0 {
		return fmt.Errorf("%w: noise level %v must be non-negative", ErrInvalidProfile, p.NoiseLevel)
	}
	return nil
}

// clippedLengthScale returns the starting length-scale for optimization,
// forced into the profile's bounds.
func (p KernelProfile) clippedLengthScale() float64 {
	return math.Min(math.Max(p.LengthScale, p.LengthScaleMin), p.LengthScaleMax)
}

// rbf evaluates the squared-exponential kernel for a squared distance.
func rbf(sqDist, lengthScale float64) float64 {
	return math.Exp(-sqDist / (2 * lengthScale * lengthScale))
}
