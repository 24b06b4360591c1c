// Package group contains the Group aggregate: the mutable per-chat-group
// state of the challenge (membership, goal thresholds, ignore-list, medal
// history). The aggregate is mutated only through the operations below and
// persisted as a whole document by the caller after each mutation.
package group

import (
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/medal"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// Domain errors for the group package.
var (
	ErrAthleteNotFound = shared.NewDomainError("group", "RemoveAthlete", shared.ErrNotFound, "athlete not in group")
	ErrAthleteExists   = shared.NewDomainError("group", "AddAthlete", shared.ErrAlreadyExists, "athlete already in group")
	ErrNotIgnored      = shared.NewDomainError("group", "UnignoreActivity", shared.ErrNotFound, "activity was never ignored")
	ErrInvalidGoal     = shared.NewDomainError("group", "SetGoal", shared.ErrValueOutOfRange, "goal must be positive")
)

// Athlete is one group member. Identity is the stable numeric AthleteID;
// DisplayName exists for presentation only and may repeat between members.
type Athlete struct {
	ID          shared.AthleteID
	DisplayName string
	JoinedAt    time.Time
}

// Group is the aggregate root. Instances are plain in-memory state: one
// instance per chat group, never shared between groups, with the upstream
// command queue serializing access.
type Group struct {
	ID shared.GroupID

	// Athletes indexes members by their canonical ID.
	Athletes map[shared.AthleteID]*Athlete

	// Goals maps lowercase sport keys to monthly distance thresholds
	// in kilometers.
	Goals map[string]float64

	// IgnoredActivityIDs suppress maximum tracking for an activity while
	// it keeps counting toward totals and points.
	IgnoredActivityIDs map[shared.ActivityID]bool

	// MedalHistory is the append-only podium bookkeeping.
	MedalHistory medal.History
}

// New creates an empty group.
func New(id shared.GroupID) *Group {
	return &Group{
		ID:                 id,
		Athletes:           map[shared.AthleteID]*Athlete{},
		Goals:              map[string]float64{},
		IgnoredActivityIDs: map[shared.ActivityID]bool{},
		MedalHistory:       medal.History{},
	}
}

// AddAthlete registers a new member.
func (g *Group) AddAthlete(a Athlete) error {
	if !a.ID.IsValid() {
		return shared.ErrInvalidAthleteID
	}
	if _, ok := g.Athletes[a.ID]; ok {
		return ErrAthleteExists
	}
	g.Athletes[a.ID] = &a
	return nil
}

// Athlete returns a member by ID, or nil.
func (g *Group) Athlete(id shared.AthleteID) *Athlete {
	return g.Athletes[id]
}

// DisplayName returns the member's display name, or the numeric ID when
// the athlete is unknown (e.g. already removed from the group).
func (g *Group) DisplayName(id shared.AthleteID) string {
	if a := g.Athletes[id]; a != nil {
		return a.DisplayName
	}
	return id.String()
}

// RemoveAthlete removes a member and purges the athlete's entries from
// the medal history, keeping medal standings consistent with membership.
func (g *Group) RemoveAthlete(id shared.AthleteID) error {
	if _, ok := g.Athletes[id]; !ok {
		return ErrAthleteNotFound
	}
	delete(g.Athletes, id)
	g.MedalHistory.RemoveAthlete(id)
	return nil
}

// SetGoal sets the monthly distance threshold for a sport, in kilometers.
// A nil threshold removes the goal.
func (g *Group) SetGoal(sport shared.SportType, thresholdKm *float64) error {
	if thresholdKm == nil {
		delete(g.Goals, sport.Key())
		return nil
	}
	if *thresholdKm <= 0 {
		return ErrInvalidGoal
	}
	g.Goals[sport.Key()] = *thresholdKm
	return nil
}

// GoalFor returns the goal threshold for a sport, if one is set.
func (g *Group) GoalFor(sport shared.SportType) (float64, bool) {
	km, ok := g.Goals[sport.Key()]
	return km, ok
}

// IgnoreActivity adds an activity to the ignore-list. Adding an already
// ignored activity is a no-op.
func (g *Group) IgnoreActivity(id shared.ActivityID) {
	g.IgnoredActivityIDs[id] = true
}

// UnignoreActivity removes an activity from the ignore-list.
func (g *Group) UnignoreActivity(id shared.ActivityID) error {
	if !g.IgnoredActivityIDs[id] {
		return ErrNotIgnored
	}
	delete(g.IgnoredActivityIDs, id)
	return nil
}
