package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC ACTIVITIES JOB
// ══════════════════════════════════════════════════════════════════════════════

// GroupLister supplies the set of groups to sync.
type GroupLister interface {
	GroupIDs() []shared.GroupID
}

// SyncActivitiesJob mirrors the fitness provider's activity feed into
// local storage. Rankings and statistics read only the mirror, so a
// provider outage degrades freshness instead of availability.
type SyncActivitiesJob struct {
	source activity.Provider
	store  activity.Repository
	groups GroupLister
	logger *slog.Logger

	timezone    *time.Location
	maxAttempts int
}

// NewSyncActivitiesJob creates the activity mirror job.
func NewSyncActivitiesJob(
	source activity.Provider,
	store activity.Repository,
	groups GroupLister,
	logger *slog.Logger,
	timezone *time.Location,
) *SyncActivitiesJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timezone == nil {
		timezone = time.UTC
	}
	return &SyncActivitiesJob{
		source:      source,
		store:       store,
		groups:      groups,
		logger:      logger,
		timezone:    timezone,
		maxAttempts: 3,
	}
}

// Name returns the unique job name.
func (j *SyncActivitiesJob) Name() string { return "sync_activities" }

// Description returns a human-readable description.
func (j *SyncActivitiesJob) Description() string {
	return "Mirrors the fitness provider's activities into local storage"
}

// Run syncs the current month for every group. Provider fetches are
// retried with backoff; a group that still fails is skipped and
// reported after the pass.
func (j *SyncActivitiesJob) Run(ctx context.Context) error {
	period := shared.MonthOf(time.Now().In(j.timezone))

	var firstErr error
	synced := 0
	for _, groupID := range j.groups.GroupIDs() {
		gid := groupID
		acts, err := retry.DoWithData(ctx, func(ctx context.Context) ([]activity.Activity, error) {
			return j.source.ListByPeriod(ctx, gid, period)
		}, retry.WithMaxAttempts(j.maxAttempts))
		if err != nil {
			j.logger.Error("activity fetch failed",
				"group_id", gid.Int64(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(acts) == 0 {
			continue
		}

		if err := j.store.SaveAll(ctx, gid, acts); err != nil {
			j.logger.Error("activity store failed",
				"group_id", gid.Int64(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		synced += len(acts)
	}

	j.logger.Info("activity sync pass finished",
		"period", period.Label(),
		"activities", synced,
	)
	return firstErr
}
