// Package service provides the tracker business logic used by the HTTP
// handlers, delegating credential handling to the tracker manager and
// persistence of metrics to a reading repository.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/fit/internal/models"
	"github.com/atinyakov/fit/internal/tracker"
)

const (
	// DefaultHistoryLimit is used when History is called with a non-positive limit.
	DefaultHistoryLimit = 30
	// MaxHistoryLimit caps the number of readings returned by History.
	MaxHistoryLimit = 365
)

// TrackerManager defines the tracker operations required by TrackerService.
type TrackerManager interface {
	// SaveCredentials stores credentials for a supported tracker type.
	SaveCredentials(trackerType models.TrackerType, username, password string) error
	// ActiveType returns the selected tracker type, if any.
	ActiveType() (models.TrackerType, bool, error)
	// SetActive persists the selection and returns a constructed client.
	SetActive(ctx context.Context, trackerType models.TrackerType) (tracker.Tracker, error)
	// GetActive returns the active tracker or nil.
	GetActive(ctx context.Context) tracker.Tracker
	// Remove deletes credentials and clears a matching selection.
	Remove(trackerType models.TrackerType) error
	// List returns the configured trackers.
	List() ([]models.TrackerInfo, error)
	// Types returns the supported tracker types.
	Types() []models.TrackerType
}

// ReadingRepository defines the persistence operations for metric readings.
type ReadingRepository interface {
	AddReading(ctx context.Context, reading models.Reading) error
	ListReadings(ctx context.Context, limit int) ([]models.Reading, error)
}

// TrackerService implements tracker management and metrics retrieval.
type TrackerService struct {
	manager  TrackerManager
	readings ReadingRepository
	log      *zap.Logger
	now      func() time.Time
}

// NewTrackerService constructs a TrackerService. readings may be nil, in
// which case metrics are not recorded and History returns nothing.
func NewTrackerService(manager TrackerManager, readings ReadingRepository, log *zap.Logger) *TrackerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TrackerService{manager: manager, readings: readings, log: log, now: time.Now}
}

// Connect stores credentials for trackerType. The tracker becomes active
// when setActive is requested or when no tracker is active yet; the
// returned flag reports whether that happened. An authentication failure
// while activating is returned after the credentials are saved, and the
// active selection is left as it was.
func (s *TrackerService) Connect(ctx context.Context, trackerType models.TrackerType, username, password string, setActive bool) (bool, error) {
	if err := s.manager.SaveCredentials(trackerType, username, password); err != nil {
		return false, err
	}
	s.log.Info("tracker credentials saved", zap.String("tracker", string(trackerType)))

	_, hasActive, err := s.manager.ActiveType()
	if err != nil {
		return false, err
	}
	if hasActive && !setActive {
		return false, nil
	}

	if _, err := s.manager.SetActive(ctx, trackerType); err != nil {
		return false, err
	}
	return true, nil
}

// SetActive selects trackerType as the active tracker.
func (s *TrackerService) SetActive(ctx context.Context, trackerType models.TrackerType) error {
	_, err := s.manager.SetActive(ctx, trackerType)
	return err
}

// Active returns the active tracker type.
func (s *TrackerService) Active() (models.TrackerType, bool, error) {
	return s.manager.ActiveType()
}

// List returns the configured trackers.
func (s *TrackerService) List() ([]models.TrackerInfo, error) {
	return s.manager.List()
}

// Types returns the supported tracker types.
func (s *TrackerService) Types() []models.TrackerType {
	return s.manager.Types()
}

// Remove deletes the credentials for trackerType.
func (s *TrackerService) Remove(trackerType models.TrackerType) error {
	if err := s.manager.Remove(trackerType); err != nil {
		return err
	}
	s.log.Info("tracker removed", zap.String("tracker", string(trackerType)))
	return nil
}

// Metrics fetches resting heart rate and calories burned from the active
// tracker and records them as a reading.
func (s *TrackerService) Metrics(ctx context.Context) (*models.Reading, error) {
	trackerType, ok, err := s.manager.ActiveType()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, tracker.ErrNoActiveTracker
	}
	tr := s.manager.GetActive(ctx)
	if tr == nil {
		return nil, fmt.Errorf("%w: %s could not be loaded", tracker.ErrNoActiveTracker, trackerType)
	}

	rhr, err := tr.RestingHeartRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("resting heart rate: %w", err)
	}
	kcal, err := tr.CaloriesBurned(ctx)
	if err != nil {
		return nil, fmt.Errorf("calories burned: %w", err)
	}

	reading := &models.Reading{
		ID:               uuid.NewString(),
		Tracker:          trackerType,
		RestingHeartRate: rhr,
		CaloriesBurned:   kcal,
		RecordedAt:       s.now().UTC(),
	}
	if s.readings != nil {
		if err := s.readings.AddReading(ctx, *reading); err != nil {
			s.log.Warn("failed to record reading", zap.String("id", reading.ID), zap.Error(err))
		}
	}
	return reading, nil
}

// History returns up to limit recorded readings, newest first.
func (s *TrackerService) History(ctx context.Context, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if s.readings == nil {
		return []models.Reading{}, nil
	}
	return s.readings.ListReadings(ctx, limit)
}
