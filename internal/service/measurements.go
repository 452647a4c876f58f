package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/fit/internal/models"
	"github.com/atinyakov/fit/internal/tracker"
)

// MeasurementRepository defines the persistence operations for body
// measurements.
type MeasurementRepository interface {
	AddMeasurement(ctx context.Context, m models.Measurement) error
	// ListMeasurements returns every measurement, oldest first.
	ListMeasurements(ctx context.Context) ([]models.Measurement, error)
}

// ActiveTrackerSource resolves the active tracker.
type ActiveTrackerSource interface {
	ActiveType() (models.TrackerType, bool, error)
	GetActive(ctx context.Context) tracker.Tracker
}

// MeasurementService records body measurements and summarizes progress.
type MeasurementService struct {
	repo     MeasurementRepository
	trackers ActiveTrackerSource
	log      *zap.Logger
	now      func() time.Time
}

// NewMeasurementService constructs a MeasurementService. trackers may be
// nil, in which case Import is unavailable.
func NewMeasurementService(repo MeasurementRepository, trackers ActiveTrackerSource, log *zap.Logger) *MeasurementService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MeasurementService{repo: repo, trackers: trackers, log: log, now: time.Now}
}

// Add records a manually entered measurement. height is in inches and
// weight in pounds; weight must be positive and height not negative.
func (s *MeasurementService) Add(ctx context.Context, height, weight float64) (*models.Measurement, error) {
	if !validAmount(weight) || weight == 0 {
		return nil, fmt.Errorf("%w: weight must be a positive number", tracker.ErrInvalidArgument)
	}
	if !validAmount(height) {
		return nil, fmt.Errorf("%w: height must not be negative", tracker.ErrInvalidArgument)
	}
	return s.store(ctx, height, weight, models.MeasurementSourceManual)
}

// List returns every measurement, oldest first.
func (s *MeasurementService) List(ctx context.Context) ([]models.Measurement, error) {
	return s.repo.ListMeasurements(ctx)
}

// Progress returns the current weight, the change since the first
// measurement and the measurement count.
func (s *MeasurementService) Progress(ctx context.Context) (*models.Progress, error) {
	measurements, err := s.repo.ListMeasurements(ctx)
	if err != nil {
		return nil, err
	}

	p := &models.Progress{Count: len(measurements), Measurements: measurements}
	if n := len(measurements); n > 0 {
		current := measurements[n-1].Weight
		p.CurrentWeight = &current
		if n > 1 {
			change := current - measurements[0].Weight
			p.TotalChange = &change
		}
	}
	return p, nil
}

// Import fetches height and weight from the active tracker and records
// them as a measurement.
func (s *MeasurementService) Import(ctx context.Context) (*models.Measurement, error) {
	if s.trackers == nil {
		return nil, tracker.ErrNoActiveTracker
	}
	trackerType, ok, err := s.trackers.ActiveType()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, tracker.ErrNoActiveTracker
	}
	tr := s.trackers.GetActive(ctx)
	if tr == nil {
		return nil, fmt.Errorf("%w: %s could not be loaded", tracker.ErrNoActiveTracker, trackerType)
	}
	measurer, ok := tr.(tracker.BodyMeasurer)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not report body measurements", tracker.ErrInvalidArgument, trackerType)
	}

	body, err := measurer.BodyMeasurement(ctx)
	if err != nil {
		return nil, fmt.Errorf("body measurement: %w", err)
	}

	m, err := s.store(ctx,
		tracker.MetersToInches(body.HeightMeter),
		tracker.KilogramsToPounds(body.WeightKilogram),
		string(trackerType),
	)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("tracker", string(trackerType)), zap.String("id", m.ID)}
	if account, ok := tr.(tracker.Account); ok {
		fields = append(fields, zap.String("user_id", account.UserID()))
	}
	s.log.Info("body measurement imported", fields...)
	return m, nil
}

func (s *MeasurementService) store(ctx context.Context, height, weight float64, source string) (*models.Measurement, error) {
	m := &models.Measurement{
		ID:         uuid.NewString(),
		RecordedAt: s.now().UTC(),
		Height:     height,
		Weight:     weight,
		Source:     source,
	}
	if err := s.repo.AddMeasurement(ctx, *m); err != nil {
		return nil, err
	}
	return m, nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
