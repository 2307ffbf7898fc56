package datamap

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL datamap repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save persists one artifact reference.
func (r *PostgresRepository) Save(ctx context.Context, dm *DataMap) error {
	if dm.ID == "" {
		dm.ID = uuid.NewString()
	}

	query := `
		INSERT INTO datamaps (id, created_at, pollutant, url, region)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, dm.ID, dm.CreatedAt, dm.Pollutant, dm.URL, dm.Region)
	return err
}

// FindLatest returns the most recent artifact for a pollutant key.
func (r *PostgresRepository) FindLatest(ctx context.Context, pollutant string) (*DataMap, error) {
	query := `
		SELECT id, created_at, pollutant, url, region
		FROM datamaps
		WHERE pollutant = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var dm DataMap
	err := r.pool.QueryRow(ctx, query, pollutant).Scan(
		&dm.ID, &dm.CreatedAt, &dm.Pollutant, &dm.URL, &dm.Region,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &dm, nil
}
