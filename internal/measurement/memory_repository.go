package measurement

import (
	"context"
	"sync"
	"time"

	"github.com/ariamap/ariamap/internal/geo"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu  sync.RWMutex
	all []*Measurement
}

// NewInMemoryRepository creates a new in-memory measurement repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Save persists a single measurement.
func (r *InMemoryRepository) Save(_ context.Context, m *Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *m
	r.all = append(r.all, &cpy)
	return nil
}

// SaveAll persists a batch of measurements.
func (r *InMemoryRepository) SaveAll(_ context.Context, ms []*Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range ms {
		cpy := *m
		r.all = append(r.all, &cpy)
	}
	return nil
}

// FindLatest returns the most recent measurement.
func (r *InMemoryRepository) FindLatest(_ context.Context) (*Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Measurement
	for _, m := range r.all {
		if latest == nil || m.MeasuredAt.After(latest.MeasuredAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, ErrNoMeasurements
	}

	cpy := *latest
	return &cpy, nil
}

// FindByExactDate returns measurements stamped with exactly the given time.
func (r *InMemoryRepository) FindByExactDate(_ context.Context, date time.Time) ([]*Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Measurement
	for _, m := range r.all {
		if m.MeasuredAt.Equal(date) {
			cpy := *m
			out = append(out, &cpy)
		}
	}
	return out, nil
}

// FindBetween returns measurements within [start, end].
func (r *InMemoryRepository) FindBetween(_ context.Context, start, end time.Time) ([]*Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Measurement
	for _, m := range r.all {
		if !m.MeasuredAt.Before(start) && !m.MeasuredAt.After(end) {
			cpy := *m
			out = append(out, &cpy)
		}
	}
	return out, nil
}

// FindUniqueCoordsForDay returns distinct station coordinates for the day.
func (r *InMemoryRepository) FindUniqueCoordsForDay(_ context.Context, day time.Time) ([]geo.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	seen := make(map[geo.Point]struct{})
	var out []geo.Point
	for _, m := range r.all {
		if m.MeasuredAt.Before(dayStart) || !m.MeasuredAt.Before(dayEnd) {
			continue
		}
		p := m.Location()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
