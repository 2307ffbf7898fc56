package measurement

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the ingestion service.
type ServiceConfig struct {
	// Repository is the measurement store.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// Clock supplies ingestion time; defaults to the real clock.
	Clock clockwork.Clock
}

// Service ingests measurement batches, normalizing their timestamps
// before persistence.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	clock  clockwork.Clock
}

// NewService creates a new ingestion service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		clock:  clock,
	}
}

// IngestBatch stamps every measurement in the batch with the current
// time rounded to the top of the hour (minutes past the hour round up to
// the next one) and persists the batch. The returned slice carries the
// normalized timestamps.
func (s *Service) IngestBatch(ctx context.Context, ms []*Measurement) ([]*Measurement, error) {
	stamp := RoundUpToHour(s.clock.Now())

	stamped := make([]*Measurement, len(ms))
	for i, m := range ms {
		cpy := *m
		cpy.MeasuredAt = stamp
		stamped[i] = &cpy
	}

	if err := s.repo.SaveAll(ctx, stamped); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("measurements", len(stamped)).
		Time("measured_at", stamp).
		Msg("measurement batch ingested")

	return stamped, nil
}

// RoundUpToHour truncates t to the hour, rounding up when any minutes
// have elapsed.
func RoundUpToHour(t time.Time) time.Time {
	truncated := t.Truncate(time.Hour)
	if t.Minute() > 0 {
		return truncated.Add(time.Hour)
	}
	return truncated
}
