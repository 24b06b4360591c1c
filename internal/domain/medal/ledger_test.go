package medal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

func TestHistory_RecordIsAppendOnly(t *testing.T) {
	h := History{}

	awards := map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
		2: shared.PositionSilver,
	}
	require.NoError(t, h.Record("07_2025", shared.SportRide, awards))
	assert.True(t, h.Recorded("07_2025", shared.SportRide))

	// A second write for the same period and sport is rejected.
	err := h.Record("07_2025", shared.SportRide, map[shared.AthleteID]shared.MedalPosition{
		3: shared.PositionGold,
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.Equal(t, shared.PositionGold, h["07_2025"][shared.SportRide][1])

	// Other sports and periods are independent.
	assert.NoError(t, h.Record("07_2025", shared.SportRun, awards))
	assert.NoError(t, h.Record("08_2025", shared.SportRide, awards))
}

func TestHistory_RecordCopiesAwards(t *testing.T) {
	h := History{}
	awards := map[shared.AthleteID]shared.MedalPosition{1: shared.PositionGold}
	require.NoError(t, h.Record("07_2025", shared.SportRide, awards))

	awards[1] = shared.PositionBronze
	assert.Equal(t, shared.PositionGold, h["07_2025"][shared.SportRide][1])
}

func TestHistory_CountsForSport(t *testing.T) {
	h := History{}
	_ = h.Record("06_2025", shared.SportRide, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
		2: shared.PositionSilver,
	})
	_ = h.Record("07_2025", shared.SportRide, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
		2: shared.PositionBronze,
	})
	_ = h.Record("07_2025", shared.SportRun, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
	})

	counts := h.CountsForSport(shared.SportRide)
	assert.Equal(t, Counts{Gold: 2}, counts[1])
	assert.Equal(t, Counts{Silver: 1, Bronze: 1}, counts[2])
}

func TestHistory_RemoveAthlete(t *testing.T) {
	h := History{}
	_ = h.Record("07_2025", shared.SportRide, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
		2: shared.PositionSilver,
	})
	_ = h.Record("06_2025", shared.SportRun, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
	})

	h.RemoveAthlete(1)

	assert.Empty(t, h.CountsForSport(shared.SportRun))
	assert.Equal(t, Counts{Silver: 1}, h.CountsForSport(shared.SportRide)[2])
	// Emptied branches are pruned.
	_, exists := h["06_2025"]
	assert.False(t, exists)
}

func TestPromote_ParticipationSizeRule(t *testing.T) {
	periodEnd := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// One athlete: no contest, no medals.
	awards := Promote([]Candidate{
		{AthleteID: 1, MetricValue: 100, JoinedAt: joined},
	}, periodEnd)
	assert.Empty(t, awards)

	// Two athletes: gold only.
	awards = Promote([]Candidate{
		{AthleteID: 1, MetricValue: 100, JoinedAt: joined},
		{AthleteID: 2, MetricValue: 80, JoinedAt: joined},
	}, periodEnd)
	assert.Equal(t, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
	}, awards)

	// Three or more: full podium.
	awards = Promote([]Candidate{
		{AthleteID: 1, MetricValue: 100, JoinedAt: joined},
		{AthleteID: 2, MetricValue: 80, JoinedAt: joined},
		{AthleteID: 3, MetricValue: 60, JoinedAt: joined},
		{AthleteID: 4, MetricValue: 40, JoinedAt: joined},
	}, periodEnd)
	assert.Equal(t, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,
		2: shared.PositionSilver,
		3: shared.PositionBronze,
	}, awards)
}

func TestPromote_LateJoinersExcluded(t *testing.T) {
	periodEnd := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	awards := Promote([]Candidate{
		{AthleteID: 1, MetricValue: 100, JoinedAt: periodEnd.AddDate(0, 0, 5)},
		{AthleteID: 2, MetricValue: 80, JoinedAt: periodEnd.AddDate(0, -3, 0)},
		{AthleteID: 3, MetricValue: 60, JoinedAt: periodEnd},
	}, periodEnd)

	// The top scorer joined after the period ended; the remaining two
	// form a two-athlete contest.
	assert.Equal(t, map[shared.AthleteID]shared.MedalPosition{
		2: shared.PositionGold,
	}, awards)
}

func TestStanding_PointsAndTieBreaks(t *testing.T) {
	h := History{}
	_ = h.Record("06_2025", shared.SportRide, map[shared.AthleteID]shared.MedalPosition{
		1: shared.PositionGold,   // 3 points
		2: shared.PositionSilver, // 2
		3: shared.PositionBronze, // 1
	})
	_ = h.Record("07_2025", shared.SportRide, map[shared.AthleteID]shared.MedalPosition{
		2: shared.PositionGold, // athlete 2: 5 points
		3: shared.PositionSilver,
		1: shared.PositionBronze, // athlete 1: 4 points, athlete 3: 3 points
	})
	_ = h.Record("07_2025", shared.SportRun, map[shared.AthleteID]shared.MedalPosition{
		4: shared.PositionGold, // athlete 4: 3 points, one gold
	})

	rows := Standing(h)
	require.Len(t, rows, 4)

	assert.Equal(t, shared.AthleteID(2), rows[0].AthleteID)
	assert.Equal(t, 5, rows[0].Points)
	assert.Equal(t, shared.AthleteID(1), rows[1].AthleteID)

	// Athletes 3 and 4 both hold 3 points; the gold outranks
	// silver+bronze.
	assert.Equal(t, shared.AthleteID(4), rows[2].AthleteID)
	assert.Equal(t, shared.AthleteID(3), rows[3].AthleteID)
}

func TestCounts_IsZero(t *testing.T) {
	assert.True(t, Counts{}.IsZero())
	assert.False(t, Counts{Bronze: 1}.IsZero())
}
