// Package activity contains the Activity entity and the inclusion rules
// that decide whether a raw activity record counts toward aggregation.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"errors"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// Domain errors for the activity package.
var (
	ErrInvalidActivityID = errors.New("activity: invalid activity ID")
	ErrInvalidAthleteID  = errors.New("activity: invalid athlete ID")
	ErrInvalidSportType  = errors.New("activity: missing sport type")
	ErrNegativeMetric    = errors.New("activity: negative metric value")
	ErrMissingStartTime  = errors.New("activity: missing start time")
)

// Activity is one exercise-activity record as delivered by the ingestion
// collaborator. Records are immutable input: the core never mutates them,
// and ingestion guarantees no duplicate IDs within a group.
type Activity struct {
	ID                  shared.ActivityID
	AthleteID           shared.AthleteID
	SportType           shared.SportType
	DistanceMeters      float64
	MovingTimeSeconds   int
	ElevationGainMeters float64
	MaxSpeedMps         float64
	AvgSpeedMps         float64
	StartLocal          time.Time
	Manual              bool
	Flagged             bool
}

// Validate reports whether the record is well-formed enough to aggregate.
// A malformed record is treated as filtered-out by callers, never as a
// reason to fail a whole computation.
func (a *Activity) Validate() error {
	if !a.ID.IsValid() {
		return ErrInvalidActivityID
	}
	if !a.AthleteID.IsValid() {
		return ErrInvalidAthleteID
	}
	if !a.SportType.IsValid() {
		return ErrInvalidSportType
	}
	if a.StartLocal.IsZero() {
		return ErrMissingStartTime
	}
	if a.DistanceMeters < 0 || a.MovingTimeSeconds < 0 || a.ElevationGainMeters < 0 ||
		a.MaxSpeedMps < 0 || a.AvgSpeedMps < 0 {
		return ErrNegativeMetric
	}
	return nil
}

// DistanceKm returns the activity distance in kilometers.
func (a *Activity) DistanceKm() float64 {
	return a.DistanceMeters / 1000
}

// LocalDay returns the activity's local calendar day, truncated to
// midnight in the start timestamp's location. Streak and frequency
// counting treat two activities on the same LocalDay as one active day.
func (a *Activity) LocalDay() time.Time {
	t := a.StartLocal
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
