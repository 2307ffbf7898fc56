package datamap

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu  sync.RWMutex
	all []*DataMap
}

// NewInMemoryRepository creates a new in-memory datamap repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Save persists one artifact reference.
func (r *InMemoryRepository) Save(_ context.Context, dm *DataMap) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *dm
	r.all = append(r.all, &cpy)
	return nil
}

// FindLatest returns the most recent artifact for a pollutant key.
func (r *InMemoryRepository) FindLatest(_ context.Context, pollutant string) (*DataMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *DataMap
	for _, dm := range r.all {
		if dm.Pollutant != pollutant {
			continue
		}
		if latest == nil || dm.CreatedAt.After(latest.CreatedAt) {
			latest = dm
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}

	cpy := *latest
	return &cpy, nil
}

// All returns every stored artifact, for test assertions.
func (r *InMemoryRepository) All() []*DataMap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*DataMap, 0, len(r.all))
	for _, dm := range r.all {
		cpy := *dm
		out = append(out, &cpy)
	}
	return out
}
