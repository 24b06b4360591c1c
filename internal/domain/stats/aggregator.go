// Package stats folds a period's activities into per-athlete, per-sport
// aggregates, and memoizes the result per group with a TTL cache.
// The aggregator is a pure fold: same input, same output.
package stats

import (
	"math"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/scoring"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// MaxVelocityKmh is the plausibility ceiling for speed maxima. Consumer
// GPS units occasionally report spikes far beyond anything a bicycle
// does; values above this are sensor noise and never become a maximum.
const MaxVelocityKmh = 80.0

// weightTrainingCapSeconds caps a single weight-training session's moving
// time before folding. Gym sessions left running for hours otherwise
// dominate the time-ranked board.
const weightTrainingCapSeconds = 7200

// MaxMetric is one running maximum with attribution to the activity that
// set it. Ties do not update attribution: the first writer wins.
type MaxMetric struct {
	Value      float64
	ActivityID shared.ActivityID
}

// update applies a candidate value with strict improvement semantics.
func (m *MaxMetric) update(value float64, id shared.ActivityID) {
	if value > m.Value {
		m.Value = value
		m.ActivityID = id
	}
}

// AggregateEntry accumulates one athlete's statistics for one sport
// within a single computation.
type AggregateEntry struct {
	TotalDistanceKm    float64
	TotalMovingTimeSec int
	TotalPoints        float64

	MaxDistance      MaxMetric
	MaxVelocity      MaxMetric
	MaxAverageSpeed  MaxMetric
	MaxElevationGain MaxMetric
	MaxMovingTime    MaxMetric
}

// GroupStats is the aggregation payload: athlete → sport → entry.
type GroupStats map[shared.AthleteID]map[shared.SportType]*AggregateEntry

// Entry returns the aggregate for (athlete, sport), or nil.
func (g GroupStats) Entry(athleteID shared.AthleteID, sport shared.SportType) *AggregateEntry {
	bySport, ok := g[athleteID]
	if !ok {
		return nil
	}
	return bySport[sport]
}

// SportTypes returns the distinct sport types present in the payload.
func (g GroupStats) SportTypes() []shared.SportType {
	seen := map[shared.SportType]bool{}
	var sports []shared.SportType
	for _, bySport := range g {
		for sport := range bySport {
			if !seen[sport] {
				seen[sport] = true
				sports = append(sports, sport)
			}
		}
	}
	return sports
}

// Aggregator folds activities into GroupStats. It has no knowledge of
// caching or ranking.
type Aggregator struct {
	// Filter decides which activities count at all.
	Filter activity.Filter
}

// Compute aggregates the given activities. Activities rejected by the
// filter (including malformed records) contribute nothing. Activities in
// ignoredIDs still count toward totals and points but never update a
// maximum.
func (ag Aggregator) Compute(activities []activity.Activity, ignoredIDs map[shared.ActivityID]bool) GroupStats {
	result := GroupStats{}

	for i := range activities {
		act := &activities[i]
		if !ag.Filter.Include(act) {
			continue
		}

		sport := act.SportType
		movingTime := act.MovingTimeSeconds
		if sport == shared.SportWeightTraining && movingTime > weightTrainingCapSeconds {
			movingTime = weightTrainingCapSeconds
		}

		distanceKm := round2(act.DistanceMeters / 1000)
		maxSpeedKmh := round2(act.MaxSpeedMps * 3.6)
		avgSpeedKmh := round2(act.AvgSpeedMps * 3.6)
		elevationGain := round2(act.ElevationGainMeters)

		bySport, ok := result[act.AthleteID]
		if !ok {
			bySport = map[shared.SportType]*AggregateEntry{}
			result[act.AthleteID] = bySport
		}
		entry, ok := bySport[sport]
		if !ok {
			entry = &AggregateEntry{}
			bySport[sport] = entry
		}

		if !ignoredIDs[act.ID] {
			entry.MaxDistance.update(distanceKm, act.ID)
			if maxSpeedKmh <= MaxVelocityKmh {
				entry.MaxVelocity.update(maxSpeedKmh, act.ID)
			}
			if avgSpeedKmh <= MaxVelocityKmh {
				entry.MaxAverageSpeed.update(avgSpeedKmh, act.ID)
			}
			entry.MaxElevationGain.update(elevationGain, act.ID)
			entry.MaxMovingTime.update(float64(movingTime), act.ID)
		}

		entry.TotalPoints = scoring.Score(entry.TotalPoints, elevationGain, distanceKm, sport)
		entry.TotalDistanceKm = round2(entry.TotalDistanceKm + distanceKm)
		entry.TotalMovingTimeSec += movingTime
	}

	return result
}

// round2 rounds to 2 decimal places at the point values are stored.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
