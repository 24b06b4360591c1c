package application

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/group"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/rank"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// Fakes
// ═══════════════════════════════════════════════════════════════════════════

type fakeGroupRepo struct {
	groups map[shared.GroupID]*group.Group
	saves  int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: map[shared.GroupID]*group.Group{}}
}

func (r *fakeGroupRepo) Load(_ context.Context, groupID shared.GroupID) (*group.Group, error) {
	if g, ok := r.groups[groupID]; ok {
		return g, nil
	}
	return group.New(groupID), nil
}

func (r *fakeGroupRepo) Save(_ context.Context, g *group.Group) error {
	r.groups[g.ID] = g
	r.saves++
	return nil
}

type fakeProvider struct {
	acts  []activity.Activity
	err   error
	calls int
}

func (p *fakeProvider) ListByPeriod(_ context.Context, _ shared.GroupID, _ shared.Period) ([]activity.Activity, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.acts, nil
}

type fakeActivityStore struct {
	fakeProvider
	purged []shared.AthleteID
}

func (s *fakeActivityStore) DeleteByAthlete(_ context.Context, _ shared.GroupID, athleteID shared.AthleteID) error {
	s.purged = append(s.purged, athleteID)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Fixtures
// ═══════════════════════════════════════════════════════════════════════════

const testGroupID = shared.GroupID(-10042)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func julyPeriod() shared.Period {
	return shared.MonthOf(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
}

func ride(id shared.ActivityID, athlete shared.AthleteID, distanceM float64, day int) activity.Activity {
	return activity.Activity{
		ID:                id,
		AthleteID:         athlete,
		SportType:         shared.SportRide,
		DistanceMeters:    distanceM,
		MovingTimeSeconds: 3600,
		StartLocal:        time.Date(2025, 7, day, 7, 0, 0, 0, time.UTC),
	}
}

func newTestEngine(t *testing.T, repo *fakeGroupRepo, provider activity.Provider) *Engine {
	t.Helper()
	registry := NewRegistry(repo, provider, time.Minute, testLogger())
	engine, err := registry.Engine(testGroupID)
	require.NoError(t, err)
	return engine
}

func seedGroup(t *testing.T, repo *fakeGroupRepo, athletes ...group.Athlete) *group.Group {
	t.Helper()
	g := group.New(testGroupID)
	for _, a := range athletes {
		require.NoError(t, g.AddAthlete(a))
	}
	repo.groups[testGroupID] = g
	return g
}

// ═══════════════════════════════════════════════════════════════════════════
// Queries
// ═══════════════════════════════════════════════════════════════════════════

func TestEngine_GetRanking(t *testing.T) {
	repo := newFakeGroupRepo()
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedGroup(t, repo,
		group.Athlete{ID: 100, DisplayName: "Ana", JoinedAt: joined},
		group.Athlete{ID: 200, DisplayName: "Bruno", JoinedAt: joined},
	)
	provider := &fakeProvider{acts: []activity.Activity{
		ride(1, 100, 50000, 10),
		ride(2, 200, 30000, 11),
	}}
	engine := newTestEngine(t, repo, provider)

	rows, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, "Ana", rows[0].DisplayName)
	assert.Equal(t, 50.0, rows[0].MetricValue)
	assert.Equal(t, 2, rows[1].Position)
	assert.Equal(t, "Bruno", rows[1].DisplayName)
}

func TestEngine_GetRanking_NoActivity(t *testing.T) {
	repo := newFakeGroupRepo()
	engine := newTestEngine(t, repo, &fakeProvider{})

	_, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	assert.ErrorIs(t, err, rank.ErrNoActivity)

	_, err = engine.GetRanking(context.Background(), shared.SportType(" "), julyPeriod())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestEngine_GetRanking_GoalMarksMonthOnly(t *testing.T) {
	repo := newFakeGroupRepo()
	g := seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})
	km := 40.0
	require.NoError(t, g.SetGoal(shared.SportRide, &km))

	provider := &fakeProvider{acts: []activity.Activity{ride(1, 100, 50000, 10)}}
	engine := newTestEngine(t, repo, provider)

	rows, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	assert.True(t, rows[0].GoalMet)

	year := shared.YearOf(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	rows, err = engine.GetRanking(context.Background(), shared.SportRide, year)
	require.NoError(t, err)
	assert.False(t, rows[0].GoalMet)
}

func TestEngine_GetRanking_UsesCachedStats(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})
	provider := &fakeProvider{acts: []activity.Activity{ride(1, 100, 50000, 10)}}
	engine := newTestEngine(t, repo, provider)

	_, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	_, err = engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
}

func TestEngine_GetRanking_ProviderErrorNotCached(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})
	provider := &fakeProvider{err: errors.New("feed down")}
	engine := newTestEngine(t, repo, provider)

	_, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	assert.ErrorIs(t, err, shared.ErrExternalService)

	provider.err = nil
	provider.acts = []activity.Activity{ride(1, 100, 50000, 10)}
	rows, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEngine_GetRanking_NonMembersExcluded(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})

	// The feed carries an athlete who never joined the group.
	provider := &fakeProvider{acts: []activity.Activity{
		ride(1, 100, 50000, 10),
		ride(3, 100, 6000, 11),
		ride(2, 999, 90000, 11),
	}}
	engine := newTestEngine(t, repo, provider)

	rows, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, shared.AthleteID(100), rows[0].AthleteID)

	// Streaks and frequency skip the stranger too.
	ref := time.Date(2025, 7, 11, 20, 0, 0, 0, time.UTC)
	streaks, err := engine.GetStreaks(context.Background(), julyPeriod(), ref)
	require.NoError(t, err)
	require.Len(t, streaks, 1)
	assert.Equal(t, shared.AthleteID(100), streaks[0].AthleteID)
}

func TestEngine_AddAthleteInvalidatesCache(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})
	provider := &fakeProvider{acts: []activity.Activity{
		ride(1, 100, 50000, 10),
		ride(2, 200, 30000, 11),
	}}
	engine := newTestEngine(t, repo, provider)

	rows, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Bruno joins: the next board rebuilds instead of serving the
	// snapshot computed before the join.
	require.NoError(t, engine.AddAthlete(context.Background(),
		group.Athlete{ID: 200, DisplayName: "Bruno"}))

	rows, err = engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, provider.calls)
}

func TestEngine_GetPoints(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo,
		group.Athlete{ID: 100, DisplayName: "Ana"},
		group.Athlete{ID: 200, DisplayName: "Bruno"},
	)
	provider := &fakeProvider{acts: []activity.Activity{
		ride(1, 100, 12000, 10), // 1 point
		ride(2, 200, 55000, 11), // 2 points
	}}
	engine := newTestEngine(t, repo, provider)

	rows, err := engine.GetPoints(context.Background(), julyPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bruno", rows[0].DisplayName)
	assert.Equal(t, 2.0, rows[0].Points)
	assert.Equal(t, 1.0, rows[1].Points)
}

func TestEngine_GetStreaks(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})

	// Short raw activity on the reference day still counts.
	checkIn := ride(1, 100, 500, 15)
	checkIn.MovingTimeSeconds = 120
	provider := &fakeProvider{acts: []activity.Activity{
		checkIn,
		ride(2, 100, 20000, 14),
	}}
	engine := newTestEngine(t, repo, provider)

	ref := time.Date(2025, 7, 15, 20, 0, 0, 0, time.UTC)
	rows, err := engine.GetStreaks(context.Background(), julyPeriod(), ref)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].DisplayName)
	assert.Equal(t, 2, rows[0].Days)
}

func TestEngine_GetFrequency(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})
	provider := &fakeProvider{acts: []activity.Activity{
		ride(1, 100, 20000, 2),
		ride(2, 100, 20000, 5),
		ride(3, 100, 20000, 5),
	}}
	engine := newTestEngine(t, repo, provider)

	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	rows, err := engine.GetFrequency(context.Background(), julyPeriod(), now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].ActiveDays)
	assert.Equal(t, 10, rows[0].PeriodDays)
}

func TestEngine_GetMedalStanding(t *testing.T) {
	repo := newFakeGroupRepo()
	g := seedGroup(t, repo,
		group.Athlete{ID: 100, DisplayName: "Ana"},
		group.Athlete{ID: 200, DisplayName: "Bruno"},
	)
	require.NoError(t, g.MedalHistory.Record("06_2025", shared.SportRide,
		map[shared.AthleteID]shared.MedalPosition{
			100: shared.PositionGold,
			200: shared.PositionSilver,
		}))
	engine := newTestEngine(t, repo, &fakeProvider{})

	rows, err := engine.GetMedalStanding(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].DisplayName)
	assert.Equal(t, 3, rows[0].Points)
	assert.Equal(t, 1, rows[0].Gold)
	assert.Equal(t, 2, rows[1].Points)
}

// ═══════════════════════════════════════════════════════════════════════════
// Commands
// ═══════════════════════════════════════════════════════════════════════════

func TestEngine_IgnoreActivityInvalidatesCache(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})
	provider := &fakeProvider{acts: []activity.Activity{ride(1, 100, 50000, 10)}}
	engine := newTestEngine(t, repo, provider)

	_, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	require.NoError(t, engine.IgnoreActivity(context.Background(), 1))

	_, err = engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestEngine_SetGoalKeepsCache(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo, group.Athlete{ID: 100, DisplayName: "Ana"})
	provider := &fakeProvider{acts: []activity.Activity{ride(1, 100, 50000, 10)}}
	engine := newTestEngine(t, repo, provider)

	_, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)

	km := 100.0
	require.NoError(t, engine.SetGoal(context.Background(), shared.SportRide, &km))

	_, err = engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestEngine_RemoveAthlete_DropsFromBoards(t *testing.T) {
	repo := newFakeGroupRepo()
	seedGroup(t, repo,
		group.Athlete{ID: 100, DisplayName: "Ana"},
		group.Athlete{ID: 200, DisplayName: "Bruno"},
	)
	store := &fakeActivityStore{fakeProvider: fakeProvider{acts: []activity.Activity{
		ride(1, 100, 50000, 10),
		ride(2, 200, 30000, 11),
	}}}
	engine := newTestEngine(t, repo, store)

	rows, err := engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, engine.RemoveAthlete(context.Background(), 200))

	// The feed still returns Bruno's rides, but the board rebuilds
	// without him and the mirror purge was requested.
	rows, err = engine.GetRanking(context.Background(), shared.SportRide, julyPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].DisplayName)
	assert.Equal(t, []shared.AthleteID{200}, store.purged)
}

func TestEngine_PromoteMedals(t *testing.T) {
	repo := newFakeGroupRepo()
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedGroup(t, repo,
		group.Athlete{ID: 100, DisplayName: "Ana", JoinedAt: joined},
		group.Athlete{ID: 200, DisplayName: "Bruno", JoinedAt: joined},
		group.Athlete{ID: 300, DisplayName: "Clara", JoinedAt: joined},
	)
	provider := &fakeProvider{acts: []activity.Activity{
		ride(1, 100, 100000, 10),
		ride(2, 200, 80000, 11),
		ride(3, 300, 60000, 12),
	}}
	engine := newTestEngine(t, repo, provider)

	awards, err := engine.PromoteMedals(context.Background(), julyPeriod())
	require.NoError(t, err)
	require.Len(t, awards, 3)

	byAthlete := map[shared.AthleteID]shared.MedalPosition{}
	for _, a := range awards {
		assert.Equal(t, "07_2025", a.PeriodLabel)
		assert.Equal(t, shared.SportRide, a.Sport)
		byAthlete[a.AthleteID] = a.Position
	}
	assert.Equal(t, shared.PositionGold, byAthlete[100])
	assert.Equal(t, shared.PositionSilver, byAthlete[200])
	assert.Equal(t, shared.PositionBronze, byAthlete[300])

	// The history was persisted.
	saved := repo.groups[testGroupID]
	assert.True(t, saved.MedalHistory.Recorded("07_2025", shared.SportRide))

	// A rerun finds the period closed and promotes nothing.
	awards, err = engine.PromoteMedals(context.Background(), julyPeriod())
	require.NoError(t, err)
	assert.Empty(t, awards)
}

func TestEngine_PromoteMedals_LateJoinerExcluded(t *testing.T) {
	repo := newFakeGroupRepo()
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedGroup(t, repo,
		group.Athlete{ID: 100, DisplayName: "Ana", JoinedAt: joined},
		group.Athlete{ID: 200, DisplayName: "Bruno", JoinedAt: joined},
		// Joined after July ended: out of the July contest.
		group.Athlete{ID: 300, DisplayName: "Clara",
			JoinedAt: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
	)
	provider := &fakeProvider{acts: []activity.Activity{
		ride(1, 100, 100000, 10),
		ride(2, 200, 80000, 11),
		ride(3, 300, 120000, 12),
	}}
	engine := newTestEngine(t, repo, provider)

	awards, err := engine.PromoteMedals(context.Background(), julyPeriod())
	require.NoError(t, err)

	// Two eligible athletes: gold only.
	require.Len(t, awards, 1)
	assert.Equal(t, shared.AthleteID(100), awards[0].AthleteID)
	assert.Equal(t, shared.PositionGold, awards[0].Position)
}

func TestEngine_PromoteMedals_NothingToPromote(t *testing.T) {
	repo := newFakeGroupRepo()
	engine := newTestEngine(t, repo, &fakeProvider{})

	awards, err := engine.PromoteMedals(context.Background(), julyPeriod())
	require.NoError(t, err)
	assert.Empty(t, awards)
	assert.Zero(t, repo.saves)
}

// ═══════════════════════════════════════════════════════════════════════════
// Registry
// ═══════════════════════════════════════════════════════════════════════════

func TestRegistry_Engine(t *testing.T) {
	registry := NewRegistry(newFakeGroupRepo(), &fakeProvider{}, time.Minute, testLogger())

	_, err := registry.Engine(0)
	assert.ErrorIs(t, err, shared.ErrInvalidGroupID)

	a, err := registry.Engine(-1)
	require.NoError(t, err)
	b, err := registry.Engine(-1)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = registry.Engine(-2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []shared.GroupID{-1, -2}, registry.GroupIDs())
}
