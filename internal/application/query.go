package application

import (
	"context"
	"sort"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/frequency"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/medal"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/rank"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/streak"
)

// ═══════════════════════════════════════════════════════════════════════════
// Ranking
// ═══════════════════════════════════════════════════════════════════════════

// GetRanking builds the ranked board for one sport over a period.
// Month views of a sport with a configured goal carry goal-met marks;
// year views never do. Returns rank.ErrNoActivity when nothing
// qualifies.
func (e *Engine) GetRanking(ctx context.Context, sport shared.SportType, period shared.Period) ([]rank.Row, error) {
	if !sport.IsValid() {
		return nil, shared.NewDomainError("application", "GetRanking", shared.ErrInvalidInput, "unknown sport type")
	}
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return nil, err
	}
	groupStats, err := e.statsFor(ctx, g, period)
	if err != nil {
		return nil, err
	}

	entries := make([]rank.Entry, 0, len(groupStats))
	for athleteID, bySport := range groupStats {
		entry, ok := bySport[sport]
		if !ok {
			continue
		}
		entries = append(entries, rank.Entry{
			AthleteID:   athleteID,
			DisplayName: g.DisplayName(athleteID),
			MetricValue: rank.MetricValue(entry, sport),
		})
	}

	var goal *float64
	if km, ok := g.GoalFor(sport); ok {
		goal = &km
	}
	return rank.Build(entries, g.MedalHistory.CountsForSport(sport), goal, !period.IsMonth())
}

// ═══════════════════════════════════════════════════════════════════════════
// Points
// ═══════════════════════════════════════════════════════════════════════════

// PointsRow is one athlete's effort-point total across all sports.
type PointsRow struct {
	AthleteID   shared.AthleteID
	DisplayName string
	Points      float64
}

// GetPoints sums each athlete's effort points across every sport for
// the period. Athletes with zero points are omitted; the result is
// sorted by points descending.
func (e *Engine) GetPoints(ctx context.Context, period shared.Period) ([]PointsRow, error) {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return nil, err
	}
	groupStats, err := e.statsFor(ctx, g, period)
	if err != nil {
		return nil, err
	}

	rows := make([]PointsRow, 0, len(groupStats))
	for athleteID, bySport := range groupStats {
		total := 0.0
		for _, entry := range bySport {
			total += entry.TotalPoints
		}
		if total <= 0 {
			continue
		}
		rows = append(rows, PointsRow{
			AthleteID:   athleteID,
			DisplayName: g.DisplayName(athleteID),
			Points:      total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Points > rows[j].Points
	})
	return rows, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Streaks and frequency
// ═══════════════════════════════════════════════════════════════════════════

// StreakRow is one athlete's consecutive-day streak with display name.
type StreakRow struct {
	AthleteID   shared.AthleteID
	DisplayName string
	Days        int
}

// GetStreaks computes consecutive-active-day streaks from the period's
// raw activities, walking backward from referenceDate. Activities too
// short or too long for the aggregate board still count here.
func (e *Engine) GetStreaks(ctx context.Context, period shared.Period, referenceDate time.Time) ([]StreakRow, error) {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return nil, err
	}
	acts, err := e.rawActivities(ctx, g, period)
	if err != nil {
		return nil, err
	}

	entries := streak.Compute(acts, referenceDate)
	rows := make([]StreakRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, StreakRow{
			AthleteID:   entry.AthleteID,
			DisplayName: g.DisplayName(entry.AthleteID),
			Days:        entry.Length,
		})
	}
	return rows, nil
}

// FrequencyRow is one athlete's active-day count against the elapsed
// period length.
type FrequencyRow struct {
	AthleteID   shared.AthleteID
	DisplayName string
	ActiveDays  int
	PeriodDays  int
}

// GetFrequency counts distinct active calendar days per athlete within
// the period, measured against the days elapsed so far.
func (e *Engine) GetFrequency(ctx context.Context, period shared.Period, now time.Time) ([]FrequencyRow, error) {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return nil, err
	}
	acts, err := e.rawActivities(ctx, g, period)
	if err != nil {
		return nil, err
	}

	entries := frequency.Compute(acts, period.DaysElapsed(now))
	rows := make([]FrequencyRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, FrequencyRow{
			AthleteID:   entry.AthleteID,
			DisplayName: g.DisplayName(entry.AthleteID),
			ActiveDays:  entry.DistinctDays,
			PeriodDays:  entry.PeriodDays,
		})
	}
	return rows, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Medal standing
// ═══════════════════════════════════════════════════════════════════════════

// StandingRow is one line of the overall medal table.
type StandingRow struct {
	AthleteID   shared.AthleteID
	DisplayName string
	Gold        int
	Silver      int
	Bronze      int
	Points      int
}

// GetMedalStanding rolls the whole medal history into the overall
// standing, sorted by weighted points with gold, silver, then bronze as
// tie-breakers.
func (e *Engine) GetMedalStanding(ctx context.Context) ([]StandingRow, error) {
	g, err := e.groups.Load(ctx, e.groupID)
	if err != nil {
		return nil, err
	}

	standing := medal.Standing(g.MedalHistory)
	rows := make([]StandingRow, 0, len(standing))
	for _, s := range standing {
		rows = append(rows, StandingRow{
			AthleteID:   s.AthleteID,
			DisplayName: g.DisplayName(s.AthleteID),
			Gold:        s.Counts.Gold,
			Silver:      s.Counts.Silver,
			Bronze:      s.Counts.Bronze,
			Points:      s.Points,
		})
	}
	return rows, nil
}
