// Package tracker integrates third-party fitness trackers. Each
// integration implements Tracker; a Registry maps tracker type tags to
// constructors, and a Manager combines the registry with the credential
// and config stores to resolve the active tracker.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atinyakov/fit/internal/models"
)

// Tracker is the capability set every integration provides.
type Tracker interface {
	// Authenticate (re)runs the token exchange for the session.
	Authenticate(ctx context.Context) error
	// RestingHeartRate returns the most recent resting heart rate in bpm.
	RestingHeartRate(ctx context.Context) (float64, error)
	// CaloriesBurned returns kilocalories burned in the most recent cycle.
	CaloriesBurned(ctx context.Context) (float64, error)
}

// BodyMeasurer is implemented by trackers that report the user's body
// measurements.
type BodyMeasurer interface {
	BodyMeasurement(ctx context.Context) (*BodyMeasurement, error)
}

// Account is implemented by trackers that know the upstream user id.
type Account interface {
	UserID() string
}

// Constructor builds an authenticated Tracker from account credentials.
type Constructor func(ctx context.Context, username, password string) (Tracker, error)

// Registry maps tracker type tags to constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[models.TrackerType]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[models.TrackerType]Constructor)}
}

// DefaultRegistry returns a registry with every built-in integration.
// The WHOOP options are passed to each constructed client.
func DefaultRegistry(whoopOpts ...WhoopOption) *Registry {
	r := NewRegistry()
	r.Register(models.Whoop, func(ctx context.Context, username, password string) (Tracker, error) {
		w, err := NewWhoop(ctx, username, password, whoopOpts...)
		if err != nil {
			return nil, err
		}
		return w, nil
	})
	return r
}

// Register adds or replaces the constructor for trackerType.
func (r *Registry) Register(trackerType models.TrackerType, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[trackerType] = c
}

// Supports reports whether trackerType has a constructor.
func (r *Registry) Supports(trackerType models.TrackerType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[trackerType]
	return ok
}

// Types returns the registered tracker types in sorted order.
func (r *Registry) Types() []models.TrackerType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]models.TrackerType, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Create constructs the tracker registered for trackerType.
func (r *Registry) Create(ctx context.Context, trackerType models.TrackerType, username, password string) (Tracker, error) {
	r.mu.RLock()
	c, ok := r.constructors[trackerType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: invalid tracker type: %s", ErrInvalidArgument, trackerType)
	}
	return c(ctx, username, password)
}
