package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/medal"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/stats"
)

func TestBuild_DenseRanking(t *testing.T) {
	entries := []Entry{
		{AthleteID: 1, DisplayName: "A", MetricValue: 50},
		{AthleteID: 2, DisplayName: "B", MetricValue: 50},
		{AthleteID: 3, DisplayName: "C", MetricValue: 30},
	}

	rows, err := Build(entries, nil, nil, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Tied values share a position; the next distinct value takes the
	// immediately following integer, not position 3.
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, 2, rows[2].Position)
	assert.Equal(t, shared.AthleteID(3), rows[2].AthleteID)
}

func TestBuild_DropsNonPositiveMetrics(t *testing.T) {
	entries := []Entry{
		{AthleteID: 1, MetricValue: 10},
		{AthleteID: 2, MetricValue: 0},
		{AthleteID: 3, MetricValue: -1},
	}

	rows, err := Build(entries, nil, nil, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, shared.AthleteID(1), rows[0].AthleteID)
}

func TestBuild_NoActivity(t *testing.T) {
	_, err := Build(nil, nil, nil, false)
	assert.ErrorIs(t, err, ErrNoActivity)

	_, err = Build([]Entry{{AthleteID: 1, MetricValue: 0}}, nil, nil, false)
	assert.ErrorIs(t, err, ErrNoActivity)
}

func TestBuild_MedalAnnotations(t *testing.T) {
	entries := []Entry{
		{AthleteID: 1, MetricValue: 42},
	}
	medals := map[shared.AthleteID]medal.Counts{
		1: {Gold: 2, Bronze: 1},
	}

	rows, err := Build(entries, medals, nil, false)
	require.NoError(t, err)
	assert.Equal(t, medal.Counts{Gold: 2, Bronze: 1}, rows[0].Medals)
}

func TestBuild_GoalAnnotationMonthOnly(t *testing.T) {
	entries := []Entry{
		{AthleteID: 1, MetricValue: 120},
		{AthleteID: 2, MetricValue: 80},
	}
	goal := 100.0

	rows, err := Build(entries, nil, &goal, false)
	require.NoError(t, err)
	assert.True(t, rows[0].GoalMet)
	assert.False(t, rows[1].GoalMet)

	// The threshold is inclusive.
	exact := []Entry{{AthleteID: 1, MetricValue: 100}}
	rows, err = Build(exact, nil, &goal, false)
	require.NoError(t, err)
	assert.True(t, rows[0].GoalMet)

	// Year views never carry goal annotations.
	rows, err = Build(entries, nil, &goal, true)
	require.NoError(t, err)
	assert.False(t, rows[0].GoalMet)
}

func TestRanksByTime(t *testing.T) {
	assert.True(t, RanksByTime(shared.SportWorkout))
	assert.True(t, RanksByTime(shared.SportWeightTraining))
	assert.True(t, RanksByTime(shared.SportType("Yoga")))
	assert.False(t, RanksByTime(shared.SportRide))
	assert.False(t, RanksByTime(shared.SportRun))
}

func TestMetricValue(t *testing.T) {
	entry := &stats.AggregateEntry{
		TotalDistanceKm:    42.5,
		TotalMovingTimeSec: 5400,
	}

	assert.Equal(t, 42.5, MetricValue(entry, shared.SportRide))
	assert.Equal(t, 5400.0, MetricValue(entry, shared.SportWeightTraining))
}
