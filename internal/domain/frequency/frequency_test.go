package frequency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

func activityOn(id shared.ActivityID, athlete shared.AthleteID, day time.Time) activity.Activity {
	return activity.Activity{
		ID:         id,
		AthleteID:  athlete,
		SportType:  shared.SportRun,
		StartLocal: day,
	}
}

func TestCompute_CountsDistinctDays(t *testing.T) {
	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

	// Four distinct days over a 10-day window, with one doubled day.
	acts := []activity.Activity{
		activityOn(1, 100, base),
		activityOn(2, 100, base.Add(3*time.Hour)),
		activityOn(3, 100, base.AddDate(0, 0, 2)),
		activityOn(4, 100, base.AddDate(0, 0, 5)),
		activityOn(5, 100, base.AddDate(0, 0, 8)),
	}

	entries := Compute(acts, 10)
	require.Len(t, entries, 1)
	assert.Equal(t, shared.AthleteID(100), entries[0].AthleteID)
	assert.Equal(t, 4, entries[0].DistinctDays)
	assert.Equal(t, 10, entries[0].PeriodDays)
}

func TestCompute_EmptyInput(t *testing.T) {
	assert.Empty(t, Compute(nil, 10))
}

func TestCompute_SortedByDistinctDaysDescending(t *testing.T) {
	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

	acts := []activity.Activity{
		activityOn(1, 100, base),
		activityOn(2, 200, base),
		activityOn(3, 200, base.AddDate(0, 0, 1)),
		activityOn(4, 200, base.AddDate(0, 0, 2)),
	}

	entries := Compute(acts, 5)
	require.Len(t, entries, 2)
	assert.Equal(t, shared.AthleteID(200), entries[0].AthleteID)
	assert.Equal(t, 3, entries[0].DistinctDays)
	assert.Equal(t, 1, entries[1].DistinctDays)
}

func TestCompute_RawActivitiesCount(t *testing.T) {
	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

	// No inclusion filter: a short check-in still marks the day active.
	act := activityOn(1, 100, base)
	act.MovingTimeSeconds = 60

	entries := Compute([]activity.Activity{act}, 3)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].DistinctDays)
}
