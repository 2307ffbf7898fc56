// Package pipeline fans interpolation work out across regions and
// pollutants and persists the resulting map artifacts.
package pipeline

import (
	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/kriging"
	"github.com/ariamap/ariamap/internal/measurement"
)

// Scope is one interpolation target: a labeled region with its grid
// shape and kernel settings. Subregion scopes additionally pre-filter
// the measurement batch by municipality.
type Scope struct {
	Name         string
	Bounds       geo.Bounds
	Resolution   int
	Profile      kriging.KernelProfile
	Municipality string
}

// Select returns the measurements belonging to this scope.
func (s Scope) Select(ms []*measurement.Measurement) []*measurement.Measurement {
	if s.Municipality == "" {
		return ms
	}
	return measurement.FilterByMunicipality(ms, s.Municipality)
}

// DefaultScopes returns the deployed scope set: the whole region, the
// Lecce subregion, and the rescaled variant that draws the Lecce
// stations on whole-region bounds at subregion kernel settings.
func DefaultScopes() []Scope {
	return []Scope{
		{
			Name:       "Puglia",
			Bounds:     geo.PugliaBounds,
			Resolution: 50,
			Profile:    kriging.WholeRegionProfile,
		},
		{
			Name:         "Lecce",
			Bounds:       geo.LecceBounds,
			Resolution:   100,
			Profile:      kriging.SubregionProfile,
			Municipality: "Lecce",
		},
		{
			Name:         "Lecce-Scaled",
			Bounds:       geo.PugliaBounds,
			Resolution:   100,
			Profile:      kriging.SubregionProfile,
			Municipality: "Lecce",
		},
	}
}
