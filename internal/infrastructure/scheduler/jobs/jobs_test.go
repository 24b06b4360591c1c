package jobs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedal-hub/pedal-community-hub/internal/application"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/group"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/pkg/logger"
	"github.com/pedal-hub/pedal-community-hub/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// Fakes
// ═══════════════════════════════════════════════════════════════════════════

type fakeGroupRepo struct {
	groups map[shared.GroupID]*group.Group
}

func (r *fakeGroupRepo) Load(_ context.Context, groupID shared.GroupID) (*group.Group, error) {
	if g, ok := r.groups[groupID]; ok {
		return g, nil
	}
	return group.New(groupID), nil
}

func (r *fakeGroupRepo) Save(_ context.Context, g *group.Group) error {
	r.groups[g.ID] = g
	return nil
}

type fakeProvider struct {
	acts []activity.Activity
}

func (p *fakeProvider) ListByPeriod(_ context.Context, _ shared.GroupID, _ shared.Period) ([]activity.Activity, error) {
	return p.acts, nil
}

type fakeStore struct {
	fakeProvider
	saved map[shared.GroupID][]activity.Activity
}

func (s *fakeStore) SaveAll(_ context.Context, groupID shared.GroupID, acts []activity.Activity) error {
	if s.saved == nil {
		s.saved = map[shared.GroupID][]activity.Activity{}
	}
	s.saved[groupID] = append(s.saved[groupID], acts...)
	return nil
}

func (s *fakeStore) DeleteByAthlete(_ context.Context, _ shared.GroupID, _ shared.AthleteID) error {
	return nil
}

type fakeJournal struct {
	awards map[shared.GroupID][]application.PromotedAward
}

func (j *fakeJournal) RecordAwards(_ context.Context, groupID shared.GroupID, awards []application.PromotedAward) error {
	if j.awards == nil {
		j.awards = map[shared.GroupID][]application.PromotedAward{}
	}
	j.awards[groupID] = append(j.awards[groupID], awards...)
	return nil
}

type fakeLocker struct {
	allow bool
	calls int
}

func (l *fakeLocker) SetNX(_ context.Context, _ string, _ interface{}, _ time.Duration) (bool, error) {
	l.calls++
	return l.allow, nil
}

type fakeInvalidator struct {
	groups []shared.GroupID
}

func (f *fakeInvalidator) InvalidateGroup(_ context.Context, groupID shared.GroupID) error {
	f.groups = append(f.groups, groupID)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Fixtures
// ═══════════════════════════════════════════════════════════════════════════

const testGroupID = shared.GroupID(-10042)

func testRegistry(t *testing.T, repo *fakeGroupRepo, provider activity.Provider) *application.Registry {
	t.Helper()
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	registry := application.NewRegistry(repo, provider, time.Minute, log)
	_, err := registry.Engine(testGroupID)
	require.NoError(t, err)
	return registry
}

// previousMonth is the period the promotion job closes when run now.
func previousMonth() shared.Period {
	return shared.MonthOf(timeutil.LastDayOfPreviousMonth(time.Now().UTC()))
}

// previousMonthRide returns a ride dated inside last month, so the
// promotion job's period selection finds it.
func previousMonthRide(id shared.ActivityID, athlete shared.AthleteID, distanceM float64) activity.Activity {
	first := previousMonth().FirstDay
	start := time.Date(first.Year(), first.Month(), 10, 7, 0, 0, 0, time.UTC)
	return activity.Activity{
		ID:                id,
		AthleteID:         athlete,
		SportType:         shared.SportRide,
		DistanceMeters:    distanceM,
		MovingTimeSeconds: 3600,
		StartLocal:        start,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Promote medals job
// ═══════════════════════════════════════════════════════════════════════════

func TestPromoteMedalsJob_Run(t *testing.T) {
	joined := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	g := group.New(testGroupID)
	require.NoError(t, g.AddAthlete(group.Athlete{ID: 100, DisplayName: "Ana", JoinedAt: joined}))
	require.NoError(t, g.AddAthlete(group.Athlete{ID: 200, DisplayName: "Bruno", JoinedAt: joined}))
	require.NoError(t, g.AddAthlete(group.Athlete{ID: 300, DisplayName: "Clara", JoinedAt: joined}))
	repo := &fakeGroupRepo{groups: map[shared.GroupID]*group.Group{testGroupID: g}}

	provider := &fakeProvider{acts: []activity.Activity{
		previousMonthRide(1, 100, 100000),
		previousMonthRide(2, 200, 80000),
		previousMonthRide(3, 300, 60000),
	}}
	registry := testRegistry(t, repo, provider)

	journal := &fakeJournal{}
	invalidator := &fakeInvalidator{}
	locker := &fakeLocker{allow: true}

	job := NewPromoteMedalsJob(registry, journal, invalidator, locker, nil, time.UTC)
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, journal.awards[testGroupID], 3)
	assert.Equal(t, []shared.GroupID{testGroupID}, invalidator.groups)
	assert.Equal(t, 1, locker.calls)

	assert.True(t, g.MedalHistory.Recorded(previousMonth().Label(), shared.SportRide))

	// A rerun sees the closed period and journals nothing new.
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, journal.awards[testGroupID], 3)
}

func TestPromoteMedalsJob_SkipsWithoutLock(t *testing.T) {
	repo := &fakeGroupRepo{groups: map[shared.GroupID]*group.Group{}}
	registry := testRegistry(t, repo, &fakeProvider{})
	journal := &fakeJournal{}

	job := NewPromoteMedalsJob(registry, journal, nil, &fakeLocker{allow: false}, nil, time.UTC)
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, journal.awards)
}

// ═══════════════════════════════════════════════════════════════════════════
// Sync activities job
// ═══════════════════════════════════════════════════════════════════════════

func TestSyncActivitiesJob_Run(t *testing.T) {
	repo := &fakeGroupRepo{groups: map[shared.GroupID]*group.Group{}}
	source := &fakeProvider{acts: []activity.Activity{
		previousMonthRide(1, 100, 20000),
		previousMonthRide(2, 200, 30000),
	}}
	store := &fakeStore{}
	registry := testRegistry(t, repo, store)

	job := NewSyncActivitiesJob(source, store, registry, nil, time.UTC)
	require.NoError(t, job.Run(context.Background()))

	assert.Len(t, store.saved[testGroupID], 2)
}
