package datamap

import "context"

// Repository defines the interface for datamap artifact persistence.
type Repository interface {
	// Save persists one artifact reference. Each save is atomic at the
	// single-document granularity.
	Save(ctx context.Context, dm *DataMap) error

	// FindLatest returns the most recent artifact for a pollutant key
	// or the health-index tag, or ErrNotFound.
	FindLatest(ctx context.Context, pollutant string) (*DataMap, error)
}
