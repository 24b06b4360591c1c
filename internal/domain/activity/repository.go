package activity

import (
	"context"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// Provider supplies normalized activity records for a group and period.
// Implementations live at the ingestion boundary (remote fitness API plus
// local storage); pagination, deduplication, and token refresh are their
// responsibility, not the core's.
type Provider interface {
	// ListByPeriod returns all activities of the group's athletes whose
	// StartLocal falls inside the half-open period. Order is unspecified.
	ListByPeriod(ctx context.Context, groupID shared.GroupID, period shared.Period) ([]Activity, error)
}

// Repository persists activity records mirrored from the fitness API.
type Repository interface {
	Provider

	// SaveAll stores a batch of activities for a group. A record whose
	// ID already exists is overwritten, so provider-side edits land on
	// the next sync.
	SaveAll(ctx context.Context, groupID shared.GroupID, activities []Activity) error

	// DeleteByAthlete removes all stored activities of one athlete,
	// used when the athlete leaves the group.
	DeleteByAthlete(ctx context.Context, groupID shared.GroupID, athleteID shared.AthleteID) error
}
