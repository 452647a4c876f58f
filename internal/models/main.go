// Package models defines the core data structures for tracker
// credentials, the active tracker selection, recorded metrics and body
// measurements.
package models

import "time"

// TrackerType identifies a fitness tracker integration ("whoop", ...).
type TrackerType string

const (
	// Whoop is the WHOOP strap integration.
	Whoop TrackerType = "whoop"
)

// Credentials are the account credentials stored for one tracker type.
// The password is kept in clear text; only file permissions protect it.
type Credentials struct {
	// Username is the tracker account login, usually an email address.
	Username string `json:"username"`
	// Password is the tracker account password.
	Password string `json:"password"`
}

// TrackerInfo describes a configured tracker without exposing its password.
type TrackerInfo struct {
	Type     TrackerType `json:"tracker_type"`
	Username string      `json:"username"`
	Active   bool        `json:"active"`
}

// ActiveTrackerConfig is the persisted selection of the active tracker.
type ActiveTrackerConfig struct {
	// ActiveTracker is nil when no tracker has been selected.
	ActiveTracker *TrackerType `json:"active_tracker"`
}

// Active returns the selected tracker type and whether one is set.
func (c ActiveTrackerConfig) Active() (TrackerType, bool) {
	if c.ActiveTracker == nil || *c.ActiveTracker == "" {
		return "", false
	}
	return *c.ActiveTracker, true
}

// Reading is one snapshot of tracker metrics.
type Reading struct {
	// ID is the unique identifier for the reading.
	ID string `json:"id"`
	// Tracker is the tracker type the values were fetched from.
	Tracker TrackerType `json:"tracker_type"`
	// RestingHeartRate is in beats per minute.
	RestingHeartRate float64 `json:"resting_heart_rate"`
	// CaloriesBurned is in kilocalories for the current cycle.
	CaloriesBurned float64 `json:"calories_burned"`
	// RecordedAt is when the reading was taken.
	RecordedAt time.Time `json:"recorded_at"`
}

// Measurement is one body measurement entry. Height is in inches and
// weight in pounds.
type Measurement struct {
	ID         string    `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	Height     float64   `json:"height"`
	Weight     float64   `json:"weight"`
	// Source is "manual" or the tracker type the values were imported from.
	Source string `json:"source"`
}

// MeasurementSourceManual marks measurements entered by the user.
const MeasurementSourceManual = "manual"

// Progress summarizes weight measurements over time.
type Progress struct {
	// Count is the number of measurements.
	Count int `json:"count"`
	// CurrentWeight is the latest weight; nil without measurements.
	CurrentWeight *float64 `json:"current_weight"`
	// TotalChange is latest minus first weight; nil with fewer than two
	// measurements.
	TotalChange *float64 `json:"total_change"`
	// Measurements are ordered oldest first.
	Measurements []Measurement `json:"measurements"`
}
