package measurement

import (
	"context"
	"time"

	"github.com/ariamap/ariamap/internal/geo"
)

// Repository defines the interface for measurement persistence.
type Repository interface {
	// Save persists a single measurement.
	Save(ctx context.Context, m *Measurement) error

	// SaveAll persists a batch of measurements.
	SaveAll(ctx context.Context, ms []*Measurement) error

	// FindLatest returns the most recent measurement, or
	// ErrNoMeasurements when the store is empty.
	FindLatest(ctx context.Context) (*Measurement, error)

	// FindByExactDate returns every measurement stamped with exactly
	// the given timestamp.
	FindByExactDate(ctx context.Context, date time.Time) ([]*Measurement, error)

	// FindBetween returns measurements within [start, end], ordered by
	// timestamp ascending.
	FindBetween(ctx context.Context, start, end time.Time) ([]*Measurement, error)

	// FindUniqueCoordsForDay returns the distinct station coordinates
	// reporting on the day of the most recent measurement.
	FindUniqueCoordsForDay(ctx context.Context, day time.Time) ([]geo.Point, error)
}
