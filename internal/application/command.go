package application

import (
	"context"
	"errors"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/group"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/medal"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/rank"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// Membership
// ═══════════════════════════════════════════════════════════════════════════

// AddAthlete registers a new member in the group and invalidates the
// statistics cache: a snapshot computed before the join excludes the
// new member's records.
func (e *Engine) AddAthlete(ctx context.Context, athlete group.Athlete) error {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return err
	}
	if err := g.AddAthlete(athlete); err != nil {
		return err
	}
	if err := e.groups.Save(ctx, g); err != nil {
		return err
	}
	e.cache.Invalidate()
	e.log.Info("athlete joined",
		logger.Int64("athlete_id", athlete.ID.Int64()),
		logger.String("display_name", athlete.DisplayName))
	return nil
}

// RemoveAthlete removes a member, purges the athlete's medal history and
// mirrored activities, and invalidates the statistics cache so the next
// read rebuilds without the departed athlete.
func (e *Engine) RemoveAthlete(ctx context.Context, athleteID shared.AthleteID) error {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return err
	}
	if err := g.RemoveAthlete(athleteID); err != nil {
		return err
	}
	if err := e.groups.Save(ctx, g); err != nil {
		return err
	}
	if purger, ok := e.activities.(ActivityPurger); ok {
		// Queries already exclude non-members, so a failed purge only
		// leaves dead rows behind; membership must not roll back.
		if err := purger.DeleteByAthlete(ctx, e.groupID, athleteID); err != nil {
			e.log.Warn("activity mirror purge failed",
				logger.Int64("athlete_id", athleteID.Int64()),
				logger.Err(err))
		}
	}
	e.cache.Invalidate()
	e.log.Info("athlete removed", logger.Int64("athlete_id", athleteID.Int64()))
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Goals and ignore-list
// ═══════════════════════════════════════════════════════════════════════════

// SetGoal sets or clears (nil threshold) the monthly distance goal for a
// sport. Goals only affect display annotations, so the cache stays.
func (e *Engine) SetGoal(ctx context.Context, sport shared.SportType, thresholdKm *float64) error {
	if !sport.IsValid() {
		return shared.NewDomainError("application", "SetGoal", shared.ErrInvalidInput, "unknown sport type")
	}
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return err
	}
	if err := g.SetGoal(sport, thresholdKm); err != nil {
		return err
	}
	return e.groups.Save(ctx, g)
}

// IgnoreActivity marks an activity so its values stop competing for
// group maxima. Totals and points are unaffected. The cached snapshot is
// invalidated because max attribution changes.
func (e *Engine) IgnoreActivity(ctx context.Context, activityID shared.ActivityID) error {
	if !activityID.IsValid() {
		return shared.NewDomainError("application", "IgnoreActivity", shared.ErrInvalidID, "invalid activity ID")
	}
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return err
	}
	g.IgnoreActivity(activityID)
	if err := e.groups.Save(ctx, g); err != nil {
		return err
	}
	e.cache.Invalidate()
	return nil
}

// UnignoreActivity lets an activity compete for maxima again.
func (e *Engine) UnignoreActivity(ctx context.Context, activityID shared.ActivityID) error {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return err
	}
	if err := g.UnignoreActivity(activityID); err != nil {
		return err
	}
	if err := e.groups.Save(ctx, g); err != nil {
		return err
	}
	e.cache.Invalidate()
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Medal promotion
// ═══════════════════════════════════════════════════════════════════════════

// PromotedAward is one placement recorded while closing a period,
// returned so callers can journal or announce it.
type PromotedAward struct {
	PeriodLabel string
	Sport       shared.SportType
	AthleteID   shared.AthleteID
	Position    shared.MedalPosition
}

// PromoteMedals closes a period: for every sport with qualifying
// activity it selects the podium from the final standings and records
// it in the medal history. Sports already recorded for the period are
// skipped, so a rerun after a partial failure completes the remainder
// without double-awarding. The newly recorded awards are returned.
func (e *Engine) PromoteMedals(ctx context.Context, period shared.Period) ([]PromotedAward, error) {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return nil, err
	}
	groupStats, err := e.statsFor(ctx, g, period)
	if err != nil {
		return nil, err
	}

	label := period.Label()
	var promoted []PromotedAward
	for _, sport := range groupStats.SportTypes() {
		if g.MedalHistory.Recorded(label, sport) {
			e.log.Warn("medals already recorded, skipping",
				logger.String("period", label),
				logger.String("sport", sport.String()))
			continue
		}

		candidates := make([]medal.Candidate, 0, len(groupStats))
		for athleteID, bySport := range groupStats {
			entry, ok := bySport[sport]
			if !ok {
				continue
			}
			value := rank.MetricValue(entry, sport)
			if value <= 0 {
				continue
			}
			joined := period.FirstDay
			if a := g.Athlete(athleteID); a != nil {
				joined = a.JoinedAt
			}
			candidates = append(candidates, medal.Candidate{
				AthleteID:   athleteID,
				MetricValue: value,
				JoinedAt:    joined,
			})
		}

		awards := medal.Promote(candidates, period.LastDay)
		if len(awards) == 0 {
			continue
		}
		if err := g.MedalHistory.Record(label, sport, awards); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				continue
			}
			return nil, err
		}
		for athleteID, pos := range awards {
			promoted = append(promoted, PromotedAward{
				PeriodLabel: label,
				Sport:       sport,
				AthleteID:   athleteID,
				Position:    pos,
			})
		}
	}

	if len(promoted) == 0 {
		return nil, nil
	}
	if err := e.groups.Save(ctx, g); err != nil {
		return nil, err
	}
	e.log.Info("medals promoted",
		logger.String("period", label),
		logger.Int("awards", len(promoted)))
	return promoted, nil
}
