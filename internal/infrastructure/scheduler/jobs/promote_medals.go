// Package jobs contains implementations of the worker's scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/application"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/internal/infrastructure/persistence/redis"
	"github.com/pedal-hub/pedal-community-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMOTE MEDALS JOB
// ══════════════════════════════════════════════════════════════════════════════

// AwardJournal persists promoted awards for auditing.
type AwardJournal interface {
	RecordAwards(ctx context.Context, groupID shared.GroupID, awards []application.PromotedAward) error
}

// Locker acquires a short-lived exclusive lock, used so only one worker
// replica runs a job per schedule slot.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

// SnapshotInvalidator drops rendered snapshots of a group after its
// state changed.
type SnapshotInvalidator interface {
	InvalidateGroup(ctx context.Context, groupID shared.GroupID) error
}

// PromoteMedalsJob closes the previous month for every live group:
// selects each sport's podium from the final standings, records it in
// the group's medal history, journals the awards, and drops the group's
// cached snapshots.
type PromoteMedalsJob struct {
	registry    *application.Registry
	journal     AwardJournal
	invalidator SnapshotInvalidator
	locker      Locker
	logger      *slog.Logger
	timezone    *time.Location
}

// NewPromoteMedalsJob creates the monthly medal promotion job.
func NewPromoteMedalsJob(
	registry *application.Registry,
	journal AwardJournal,
	invalidator SnapshotInvalidator,
	locker Locker,
	logger *slog.Logger,
	timezone *time.Location,
) *PromoteMedalsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timezone == nil {
		timezone = time.UTC
	}
	return &PromoteMedalsJob{
		registry:    registry,
		journal:     journal,
		invalidator: invalidator,
		locker:      locker,
		logger:      logger,
		timezone:    timezone,
	}
}

// Name returns the unique job name.
func (j *PromoteMedalsJob) Name() string { return "promote_medals" }

// Description returns a human-readable description.
func (j *PromoteMedalsJob) Description() string {
	return "Closes the previous month and records each sport's podium"
}

// Run executes one promotion pass. Per-group failures are logged and
// skipped so one broken group does not block the rest; the first error
// is reported after the pass completes.
func (j *PromoteMedalsJob) Run(ctx context.Context) error {
	if j.locker != nil {
		acquired, err := j.locker.SetNX(ctx, redis.LockKey(j.Name()), time.Now().UTC(), redis.TTLJobLock)
		if err != nil {
			return fmt.Errorf("promote medals: acquire lock: %w", err)
		}
		if !acquired {
			j.logger.Info("promotion already running elsewhere, skipping")
			return nil
		}
	}

	now := time.Now().In(j.timezone)
	period := shared.MonthOf(timeutil.LastDayOfPreviousMonth(now))

	var firstErr error
	promotedGroups := 0
	for _, groupID := range j.registry.GroupIDs() {
		engine, err := j.registry.Engine(groupID)
		if err != nil {
			continue
		}

		awards, err := engine.PromoteMedals(ctx, period)
		if err != nil {
			j.logger.Error("promotion failed for group",
				"group_id", groupID.Int64(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(awards) == 0 {
			continue
		}

		if err := j.journal.RecordAwards(ctx, groupID, awards); err != nil {
			j.logger.Error("award journal write failed",
				"group_id", groupID.Int64(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if j.invalidator != nil {
			if err := j.invalidator.InvalidateGroup(ctx, groupID); err != nil {
				j.logger.Warn("snapshot invalidation failed",
					"group_id", groupID.Int64(), "error", err)
			}
		}
		promotedGroups++
	}

	j.logger.Info("medal promotion pass finished",
		"period", period.Label(),
		"groups_promoted", promotedGroups,
	)
	return firstErr
}
