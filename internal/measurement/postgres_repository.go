package measurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariamap/ariamap/internal/geo"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL measurement repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const measurementColumns = `
	measured_at, denomination, municipality, province, lat, lon,
	pm10_value, pm10_unit, pm2dot5_value, pm2dot5_unit,
	no2_value, no2_unit, o3_value, o3_unit, so2_value, so2_unit,
	co_value, co_unit, c6h6_value, c6h6_unit,
	ipa_value, ipa_unit, h2s_value, h2s_unit
`

// Save persists a single measurement.
func (r *PostgresRepository) Save(ctx context.Context, m *Measurement) error {
	query := `
		INSERT INTO measurements (` + measurementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := r.pool.Exec(ctx, query, insertArgs(m)...)
	return err
}

// SaveAll persists a batch of measurements inside one transaction so a
// batch is either fully stored or not at all.
func (r *PostgresRepository) SaveAll(ctx context.Context, ms []*Measurement) error {
	if len(ms) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO measurements (` + measurementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
	`

	for _, m := range ms {
		if _, err := tx.Exec(ctx, query, insertArgs(m)...); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// FindLatest returns the most recent measurement.
func (r *PostgresRepository) FindLatest(ctx context.Context) (*Measurement, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		ORDER BY measured_at DESC
		LIMIT 1
	`

	m, err := scanMeasurement(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoMeasurements
		}
		return nil, err
	}
	return m, nil
}

// FindByExactDate returns measurements stamped with exactly the given time.
func (r *PostgresRepository) FindByExactDate(ctx context.Context, date time.Time) ([]*Measurement, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		WHERE measured_at = $1
	`

	return r.queryMeasurements(ctx, query, date)
}

// FindBetween returns measurements within [start, end], ascending.
func (r *PostgresRepository) FindBetween(ctx context.Context, start, end time.Time) ([]*Measurement, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		WHERE measured_at BETWEEN $1 AND $2
		ORDER BY measured_at ASC
	`

	return r.queryMeasurements(ctx, query, start, end)
}

// FindUniqueCoordsForDay returns distinct station coordinates for the day.
func (r *PostgresRepository) FindUniqueCoordsForDay(ctx context.Context, day time.Time) ([]geo.Point, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `
		SELECT DISTINCT lon, lat
		FROM measurements
		WHERE measured_at >= $1 AND measured_at < $2
	`

	rows, err := r.pool.Query(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []geo.Point
	for rows.Next() {
		var p geo.Point
		if err := rows.Scan(&p.Lon, &p.Lat); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *PostgresRepository) queryMeasurements(ctx context.Context, query string, args ...interface{}) ([]*Measurement, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func insertArgs(m *Measurement) []interface{} {
	args := []interface{}{
		m.MeasuredAt, m.Denomination, m.Municipality, m.Province, m.Lat, m.Lon,
	}
	for _, name := range AllPollutants() {
		c, ok := m.Pollutants.Get(name)
		if !ok {
			args = append(args, nil, nil)
			continue
		}
		args = append(args, c.Value, c.Unit)
	}
	return args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeasurement(row rowScanner) (*Measurement, error) {
	var m Measurement

	values := make([]*float64, len(AllPollutants()))
	units := make([]*string, len(AllPollutants()))

	dest := []interface{}{
		&m.MeasuredAt, &m.Denomination, &m.Municipality, &m.Province, &m.Lat, &m.Lon,
	}
	for i := range values {
		dest = append(dest, &values[i], &units[i])
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	pollutants := &Pollutants{}
	fields := []**Concentration{
		&pollutants.PM10, &pollutants.PM25, &pollutants.NO2, &pollutants.O3,
		&pollutants.SO2, &pollutants.CO, &pollutants.C6H6, &pollutants.IPA, &pollutants.H2S,
	}
	for i, field := range fields {
		if values[i] == nil {
			continue
		}
		unit := "µg/m³"
		if units[i] != nil && *units[i] != "" {
			unit = *units[i]
		}
		*field = &Concentration{Value: *values[i], Unit: unit}
	}
	m.Pollutants = pollutants

	return &m, nil
}
