package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/application"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/rank"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH BOARDS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotWriter stores rendered snapshots for the chat front-end.
type SnapshotWriter interface {
	SetBoard(ctx context.Context, groupID shared.GroupID, sport shared.SportType, period shared.Period, rows []rank.Row) error
	SetStanding(ctx context.Context, groupID shared.GroupID, rows []application.StandingRow) error
}

// RefreshBoardsJob warms the rendered snapshots of every live group so
// chat commands read a fresh board instead of triggering a recompute.
type RefreshBoardsJob struct {
	registry *application.Registry
	writer   SnapshotWriter
	logger   *slog.Logger
	timezone *time.Location

	// sports are the boards kept warm. Sports outside this list are
	// still computed on demand.
	sports []shared.SportType
}

// DefaultWarmSports are the boards most groups ask for.
func DefaultWarmSports() []shared.SportType {
	return []shared.SportType{
		shared.SportRide,
		shared.SportRun,
		shared.SportWalk,
		shared.SportSwim,
	}
}

// NewRefreshBoardsJob creates the board warming job.
func NewRefreshBoardsJob(
	registry *application.Registry,
	writer SnapshotWriter,
	logger *slog.Logger,
	timezone *time.Location,
	sports []shared.SportType,
) *RefreshBoardsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timezone == nil {
		timezone = time.UTC
	}
	if len(sports) == 0 {
		sports = DefaultWarmSports()
	}
	return &RefreshBoardsJob{
		registry: registry,
		writer:   writer,
		logger:   logger,
		timezone: timezone,
		sports:   sports,
	}
}

// Name returns the unique job name.
func (j *RefreshBoardsJob) Name() string { return "refresh_boards" }

// Description returns a human-readable description.
func (j *RefreshBoardsJob) Description() string {
	return "Warms rendered ranking boards and medal standings"
}

// Run refreshes the current month's boards and the medal standing for
// every live group.
func (j *RefreshBoardsJob) Run(ctx context.Context) error {
	period := shared.MonthOf(time.Now().In(j.timezone))

	var firstErr error
	boards := 0
	for _, groupID := range j.registry.GroupIDs() {
		engine, err := j.registry.Engine(groupID)
		if err != nil {
			continue
		}

		for _, sport := range j.sports {
			rows, err := engine.GetRanking(ctx, sport, period)
			if errors.Is(err, rank.ErrNoActivity) {
				continue
			}
			if err != nil {
				j.logger.Error("board refresh failed",
					"group_id", groupID.Int64(),
					"sport", sport.String(),
					"error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := j.writer.SetBoard(ctx, groupID, sport, period, rows); err != nil {
				j.logger.Warn("board cache write failed",
					"group_id", groupID.Int64(), "error", err)
			}
			boards++
		}

		standing, err := engine.GetMedalStanding(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(standing) > 0 {
			if err := j.writer.SetStanding(ctx, groupID, standing); err != nil {
				j.logger.Warn("standing cache write failed",
					"group_id", groupID.Int64(), "error", err)
			}
		}
	}

	j.logger.Info("board refresh pass finished",
		"period", period.Label(),
		"boards_warmed", boards,
	)
	return firstErr
}
