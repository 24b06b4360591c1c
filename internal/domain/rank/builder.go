// Package rank turns per-sport aggregates into a dense-ranked, annotated
// list for display.
package rank

import (
	"errors"
	"sort"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/medal"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/stats"
)

// ErrNoActivity is returned when nothing qualifies for the requested
// sport and period. "No data" is deliberately distinct from a zero metric
// value; callers report it as "nothing to show" instead of an empty board.
var ErrNoActivity = errors.New("rank: no activity for sport in period")

// timeRankedSports rank by total moving time instead of distance.
// Lookup is by the lowercase sport key.
var timeRankedSports = map[string]bool{
	"workout":         true,
	"weighttraining":  true,
	"velomobile":      true,
	"standuppaddling": true,
	"yoga":            true,
	"stairstepper":    true,
	"pilates":         true,
}

// RanksByTime reports whether the sport ranks by moving time.
func RanksByTime(sport shared.SportType) bool {
	return timeRankedSports[sport.Key()]
}

// MetricValue selects the ranking metric from an aggregate entry:
// total moving seconds for time-ranked sports, total kilometers otherwise.
func MetricValue(entry *stats.AggregateEntry, sport shared.SportType) float64 {
	if RanksByTime(sport) {
		return float64(entry.TotalMovingTimeSec)
	}
	return entry.TotalDistanceKm
}

// Entry is one athlete's input to the builder.
type Entry struct {
	AthleteID   shared.AthleteID
	DisplayName string
	MetricValue float64
}

// Row is one display row of the ranking.
type Row struct {
	// Position is the dense rank: tied values share a position and the
	// next distinct value takes the immediately following integer.
	Position    int
	AthleteID   shared.AthleteID
	DisplayName string
	MetricValue float64
	Medals      medal.Counts

	// GoalMet is set only for month views of sports with a goal.
	GoalMet bool
}

// Build produces the ranked rows for one sport.
//
// Entries with a non-positive metric are dropped first. The remainder is
// sorted descending and assigned dense ranks. The relative order of tied
// entries is unspecified. If nothing survives, ErrNoActivity is returned.
func Build(entries []Entry, medals map[shared.AthleteID]medal.Counts, goalThreshold *float64, yearView bool) ([]Row, error) {
	qualified := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.MetricValue > 0 {
			qualified = append(qualified, e)
		}
	}
	if len(qualified) == 0 {
		return nil, ErrNoActivity
	}

	sort.Slice(qualified, func(i, j int) bool {
		return qualified[i].MetricValue > qualified[j].MetricValue
	})

	rows := make([]Row, 0, len(qualified))
	position := 1
	positionValue := qualified[0].MetricValue
	for _, e := range qualified {
		if e.MetricValue != positionValue {
			position++
			positionValue = e.MetricValue
		}

		row := Row{
			Position:    position,
			AthleteID:   e.AthleteID,
			DisplayName: e.DisplayName,
			MetricValue: e.MetricValue,
			Medals:      medals[e.AthleteID],
		}
		if !yearView && goalThreshold != nil {
			row.GoalMet = e.MetricValue >= *goalThreshold
		}
		rows = append(rows, row)
	}

	return rows, nil
}
