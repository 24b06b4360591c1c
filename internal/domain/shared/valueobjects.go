// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages. This package has zero external
// dependencies.
package shared

import (
	"fmt"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// GroupID represents a unique chat group identifier.
// Group chats carry negative identifiers on the wire, so any non-zero
// value is accepted.
type GroupID int64

// IsValid checks if the group ID is valid.
func (g GroupID) IsValid() bool {
	return g != 0
}

// Int64 returns the underlying int64 value.
func (g GroupID) Int64() int64 {
	return int64(g)
}

// String returns the string representation.
func (g GroupID) String() string {
	return fmt.Sprintf("%d", g)
}

// NewGroupID creates a new GroupID with validation.
func NewGroupID(id int64) (GroupID, error) {
	if id == 0 {
		return 0, ErrInvalidGroupID
	}
	return GroupID(id), nil
}

// AthleteID represents a unique athlete identifier as assigned by the
// fitness platform. This is the canonical identity key for every
// subsystem: aggregation, ranking, streaks, frequency, and the medal
// ledger all key athletes by AthleteID, never by display name.
type AthleteID int64

// IsValid checks if the athlete ID is valid (positive number).
func (a AthleteID) IsValid() bool {
	return a > 0
}

// Int64 returns the underlying int64 value.
func (a AthleteID) Int64() int64 {
	return int64(a)
}

// String returns the string representation.
func (a AthleteID) String() string {
	return fmt.Sprintf("%d", a)
}

// NewAthleteID creates a new AthleteID with validation.
func NewAthleteID(id int64) (AthleteID, error) {
	if id <= 0 {
		return 0, ErrInvalidAthleteID
	}
	return AthleteID(id), nil
}

// ActivityID represents a unique activity identifier within a group.
// Ingestion guarantees no duplicate IDs per group.
type ActivityID int64

// IsValid checks if the activity ID is valid (positive number).
func (a ActivityID) IsValid() bool {
	return a > 0
}

// Int64 returns the underlying int64 value.
func (a ActivityID) Int64() int64 {
	return int64(a)
}

// String returns the string representation.
func (a ActivityID) String() string {
	return fmt.Sprintf("%d", a)
}

// ═══════════════════════════════════════════════════════════════════════════
// SportType Value Object
// ═══════════════════════════════════════════════════════════════════════════

// SportType is the sport-specific label of an activity as reported by the
// fitness platform (e.g. "Ride", "Run", "WeightTraining"). Labels act as
// separate buckets: "WeightTraining" is its own bucket, distinct from the
// generic "Workout".
type SportType string

// Well-known sport types referenced by scoring and aggregation rules.
const (
	SportRide           SportType = "Ride"
	SportRun            SportType = "Run"
	SportWalk           SportType = "Walk"
	SportHike           SportType = "Hike"
	SportSwim           SportType = "Swim"
	SportWorkout        SportType = "Workout"
	SportWeightTraining SportType = "WeightTraining"
)

// IsValid checks if the sport type is non-empty.
func (s SportType) IsValid() bool {
	return strings.TrimSpace(string(s)) != ""
}

// String returns the string representation.
func (s SportType) String() string {
	return string(s)
}

// Key returns the lowercase form used for case-insensitive rule lookups
// (goal thresholds, the time-ranked sport set).
func (s SportType) Key() string {
	return strings.ToLower(string(s))
}

// ═══════════════════════════════════════════════════════════════════════════
// Period Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Period is a half-open date range [FirstDay, LastDay) over which
// activities are aggregated, typically a calendar month or year.
type Period struct {
	FirstDay time.Time
	LastDay  time.Time
}

// IsValid checks if the period is well-formed.
func (p Period) IsValid() bool {
	return !p.FirstDay.IsZero() && !p.LastDay.IsZero() && p.FirstDay.Before(p.LastDay)
}

// Equal reports whether two periods cover exactly the same range.
// Cache lookups require exact equality, not overlap.
func (p Period) Equal(other Period) bool {
	return p.FirstDay.Equal(other.FirstDay) && p.LastDay.Equal(other.LastDay)
}

// Contains checks whether t falls inside the half-open range.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.FirstDay) && t.Before(p.LastDay)
}

// Label returns the period label used as a medal-history key,
// "MM_YYYY" for month-sized periods and "YYYY" otherwise.
func (p Period) Label() string {
	if p.IsMonth() {
		return p.FirstDay.Format("01_2006")
	}
	return p.FirstDay.Format("2006")
}

// IsMonth reports whether the period is exactly one calendar month.
// Goal annotations apply only to month views.
func (p Period) IsMonth() bool {
	return p.FirstDay.AddDate(0, 1, 0).Equal(p.LastDay)
}

// DaysElapsed returns how many whole or partial days of the period have
// passed as of now, clamped to the period length. Used for "active days
// out of N" displays.
func (p Period) DaysElapsed(now time.Time) int {
	end := now
	if end.After(p.LastDay) {
		end = p.LastDay
	}
	if end.Before(p.FirstDay) {
		return 0
	}
	days := int(end.Sub(p.FirstDay).Hours()/24) + 1
	max := int(p.LastDay.Sub(p.FirstDay).Hours() / 24)
	if days > max {
		days = max
	}
	return days
}

// String returns a human-readable representation.
func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.FirstDay.Format("2006-01-02"), p.LastDay.Format("2006-01-02"))
}

// NewPeriod creates a new Period with validation.
func NewPeriod(firstDay, lastDay time.Time) (Period, error) {
	p := Period{FirstDay: firstDay, LastDay: lastDay}
	if !p.IsValid() {
		return Period{}, NewDomainError("shared", "NewPeriod", ErrInvalidInput, "first day must be before last day")
	}
	return p, nil
}

// MonthOf returns the calendar-month period containing t, in t's location.
func MonthOf(t time.Time) Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{FirstDay: first, LastDay: first.AddDate(0, 1, 0)}
}

// YearOf returns the calendar-year period containing t, in t's location.
func YearOf(t time.Time) Period {
	first := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	return Period{FirstDay: first, LastDay: first.AddDate(1, 0, 0)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Medal Position Value Object
// ═══════════════════════════════════════════════════════════════════════════

// MedalPosition is a podium placement: 1 (gold), 2 (silver) or 3 (bronze).
type MedalPosition int

const (
	PositionGold   MedalPosition = 1
	PositionSilver MedalPosition = 2
	PositionBronze MedalPosition = 3
)

// IsValid checks if the position is a podium placement.
func (m MedalPosition) IsValid() bool {
	return m >= PositionGold && m <= PositionBronze
}

// Int returns the underlying int value.
func (m MedalPosition) Int() int {
	return int(m)
}

// Points returns the overall-standing contribution of the placement:
// 3 for gold, 2 for silver, 1 for bronze.
func (m MedalPosition) Points() int {
	switch m {
	case PositionGold:
		return 3
	case PositionSilver:
		return 2
	case PositionBronze:
		return 1
	default:
		return 0
	}
}
