// Package application wires the domain packages into per-group use
// cases. Each chat group gets its own Engine instance holding the
// group's statistics cache; the transport in front of the engine is
// expected to serialize calls for one group.
package application

import (
	"context"
	"sync"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/group"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/stats"
	"github.com/pedal-hub/pedal-community-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// Engine
// ═══════════════════════════════════════════════════════════════════════════

// Engine executes every query and command for one chat group.
type Engine struct {
	groupID    shared.GroupID
	groups     group.Repository
	activities activity.Provider
	aggregator stats.Aggregator
	cache      *stats.Cache
	log        *logger.Logger
}

// NewEngine creates the engine for one group. cacheTTL bounds how stale
// a statistics snapshot may be served; zero selects the default.
func NewEngine(
	groupID shared.GroupID,
	groups group.Repository,
	activities activity.Provider,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Engine {
	if cacheTTL <= 0 {
		cacheTTL = stats.DefaultTTL
	}
	return &Engine{
		groupID:    groupID,
		groups:     groups,
		activities: activities,
		aggregator: stats.Aggregator{},
		cache:      stats.NewCache(cacheTTL),
		log:        log.With(logger.Int64("group_id", groupID.Int64())),
	}
}

// GroupID returns the group this engine serves.
func (e *Engine) GroupID() shared.GroupID {
	return e.groupID
}

// ActivityPurger is the optional store capability of dropping one
// athlete's mirrored records. The local mirror implements it; remote
// providers do not.
type ActivityPurger interface {
	DeleteByAthlete(ctx context.Context, groupID shared.GroupID, athleteID shared.AthleteID) error
}

// memberActivities keeps only records of current group members. The
// feed can carry athletes who never joined or already left the group;
// they compete in nothing.
func memberActivities(g *group.Group, acts []activity.Activity) []activity.Activity {
	members := make([]activity.Activity, 0, len(acts))
	for _, act := range acts {
		if g.Athlete(act.AthleteID) == nil {
			continue
		}
		members = append(members, act)
	}
	return members
}

// statsFor returns the group statistics for the period, computing and
// caching them when the cached snapshot is missing, stale, or for a
// different period. A failed fetch is returned to the caller and leaves
// the cache untouched.
func (e *Engine) statsFor(ctx context.Context, g *group.Group, period shared.Period) (stats.GroupStats, error) {
	return e.cache.GetOrCompute(period, func() (stats.GroupStats, error) {
		started := time.Now()
		acts, err := e.activities.ListByPeriod(ctx, e.groupID, period)
		if err != nil {
			return nil, shared.WrapError("application", "Stats", shared.ErrExternalService,
				"listing activities for period", err)
		}
		acts = memberActivities(g, acts)
		e.log.Debug("group stats computed",
			logger.String("period", period.String()),
			logger.Int("activities", len(acts)),
			logger.Duration("took", time.Since(started)))
		return e.aggregator.Compute(acts, g.IgnoredActivityIDs), nil
	})
}

// rawActivities fetches the period's activities of current members
// without any inclusion filtering, for day-based computations.
func (e *Engine) rawActivities(ctx context.Context, g *group.Group, period shared.Period) ([]activity.Activity, error) {
	acts, err := e.activities.ListByPeriod(ctx, e.groupID, period)
	if err != nil {
		return nil, shared.WrapError("application", "ListActivities", shared.ErrExternalService,
			"listing activities for period", err)
	}
	return memberActivities(g, acts), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Registry
// ═══════════════════════════════════════════════════════════════════════════

// Registry hands out the engine for a group, creating it on first use.
// Engines live for the process lifetime; their caches die with them.
type Registry struct {
	mu      sync.Mutex
	engines map[shared.GroupID]*Engine

	groups     group.Repository
	activities activity.Provider
	cacheTTL   time.Duration
	log        *logger.Logger
}

// NewRegistry creates an empty engine registry.
func NewRegistry(groups group.Repository, activities activity.Provider, cacheTTL time.Duration, log *logger.Logger) *Registry {
	return &Registry{
		engines:    map[shared.GroupID]*Engine{},
		groups:     groups,
		activities: activities,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// Engine returns the engine for a group, creating one on first contact.
func (r *Registry) Engine(groupID shared.GroupID) (*Engine, error) {
	if !groupID.IsValid() {
		return nil, shared.ErrInvalidGroupID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engines[groupID]
	if !ok {
		e = NewEngine(groupID, r.groups, r.activities, r.cacheTTL, r.log)
		r.engines[groupID] = e
	}
	return e, nil
}

// GroupIDs lists the groups with a live engine.
func (r *Registry) GroupIDs() []shared.GroupID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]shared.GroupID, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	return ids
}
