// Package repository provides persistence implementations for recorded
// tracker metrics and body measurements.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/fit/internal/db"
	"github.com/atinyakov/fit/internal/models"
)

// SQLReadingRepository stores metric readings in the readings table.
type SQLReadingRepository struct {
	// DB is the database handle for executing queries.
	DB     *sql.DB
	driver db.Driver
}

// NewSQLReadingRepository creates a repository over an initialized database.
// driver selects the placeholder syntax.
func NewSQLReadingRepository(conn *sql.DB, driver db.Driver) *SQLReadingRepository {
	return &SQLReadingRepository{DB: conn, driver: driver}
}

// AddReading inserts a reading.
func (r *SQLReadingRepository) AddReading(ctx context.Context, reading models.Reading) error {
	_, err := r.DB.ExecContext(ctx, db.Rebind(r.driver, `
		INSERT INTO readings (id, tracker, resting_heart_rate, calories_burned, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`), reading.ID, string(reading.Tracker), reading.RestingHeartRate, reading.CaloriesBurned,
		reading.RecordedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("AddReading: %w", err)
	}
	return nil
}

// ListReadings returns up to limit readings, newest first.
func (r *SQLReadingRepository) ListReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	rows, err := r.DB.QueryContext(ctx, db.Rebind(r.driver, `
		SELECT id, tracker, resting_heart_rate, calories_burned, recorded_at
		FROM readings ORDER BY recorded_at DESC LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("ListReadings: %w", err)
	}
	defer rows.Close()

	readings := make([]models.Reading, 0)
	for rows.Next() {
		var (
			rd         models.Reading
			tracker    string
			recordedAt int64
		)
		if err := rows.Scan(&rd.ID, &tracker, &rd.RestingHeartRate, &rd.CaloriesBurned, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rd.Tracker = models.TrackerType(tracker)
		rd.RecordedAt = time.UnixMilli(recordedAt).UTC()
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListReadings: %w", err)
	}
	return readings, nil
}
