package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/fit/internal/db"
	"github.com/atinyakov/fit/internal/models"
)

// SQLMeasurementRepository stores body measurements in the measurements table.
type SQLMeasurementRepository struct {
	DB     *sql.DB
	driver db.Driver
}

// NewSQLMeasurementRepository creates a repository over an initialized database.
func NewSQLMeasurementRepository(conn *sql.DB, driver db.Driver) *SQLMeasurementRepository {
	return &SQLMeasurementRepository{DB: conn, driver: driver}
}

// AddMeasurement inserts a measurement.
func (r *SQLMeasurementRepository) AddMeasurement(ctx context.Context, m models.Measurement) error {
	_, err := r.DB.ExecContext(ctx, db.Rebind(r.driver, `
		INSERT INTO measurements (id, recorded_at, height, weight, source)
		VALUES (?, ?, ?, ?, ?)
	`), m.ID, m.RecordedAt.UnixMilli(), m.Height, m.Weight, m.Source)
	if err != nil {
		return fmt.Errorf("AddMeasurement: %w", err)
	}
	return nil
}

// ListMeasurements returns every measurement, oldest first.
func (r *SQLMeasurementRepository) ListMeasurements(ctx context.Context) ([]models.Measurement, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, recorded_at, height, weight, source
		FROM measurements ORDER BY recorded_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ListMeasurements: %w", err)
	}
	defer rows.Close()

	measurements := make([]models.Measurement, 0)
	for rows.Next() {
		var (
			m          models.Measurement
			recordedAt int64
		)
		if err := rows.Scan(&m.ID, &recordedAt, &m.Height, &m.Weight, &m.Source); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		m.RecordedAt = time.UnixMilli(recordedAt).UTC()
		measurements = append(measurements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListMeasurements: %w", err)
	}
	return measurements, nil
}
