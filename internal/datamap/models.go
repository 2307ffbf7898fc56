// Package datamap provides the generated-map artifact model and its
// persistence.
package datamap

import (
	"errors"
	"time"
)

// Repository errors.
var ErrNotFound = errors.New("datamap not found")

// HealthIndexTag marks artifacts produced by the health-index flow
// rather than a single pollutant.
const HealthIndexTag = "health_index"

// DataMap references one generated map artifact: which pollutant (or
// the health index), where the rendered artifact lives, and for which
// region. Created once per successful map generation, never mutated.
type DataMap struct {
	ID        string
	CreatedAt time.Time
	Pollutant string
	URL       string
	Region    string
}
