package redis

import (
	"context"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/application"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/rank"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// GroupCache holds the rendered snapshots the chat front-end reads:
// per-sport ranking boards and the overall medal standing. It sits in
// front of the engine so a popular group does not recompute a board for
// every chat command.
type GroupCache struct {
	cache       *Cache
	boardTTL    time.Duration
	standingTTL time.Duration
}

// NewGroupCache creates a GroupCache with the default TTLs.
func NewGroupCache(cache *Cache) *GroupCache {
	return &GroupCache{
		cache:       cache,
		boardTTL:    TTLBoardCache,
		standingTTL: TTLStandingCache,
	}
}

// SetBoard stores one rendered board.
func (gc *GroupCache) SetBoard(ctx context.Context, groupID shared.GroupID, sport shared.SportType, period shared.Period, rows []rank.Row) error {
	key := BoardKey(groupID.Int64(), sport.Key(), period.Label())
	return gc.cache.Set(ctx, key, rows, gc.boardTTL)
}

// GetBoard fetches one rendered board. Returns ErrCacheMiss when absent
// or expired.
func (gc *GroupCache) GetBoard(ctx context.Context, groupID shared.GroupID, sport shared.SportType, period shared.Period) ([]rank.Row, error) {
	key := BoardKey(groupID.Int64(), sport.Key(), period.Label())
	var rows []rank.Row
	if err := gc.cache.Get(ctx, key, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SetStanding stores the overall medal standing of a group.
func (gc *GroupCache) SetStanding(ctx context.Context, groupID shared.GroupID, rows []application.StandingRow) error {
	return gc.cache.Set(ctx, StandingKey(groupID.Int64()), rows, gc.standingTTL)
}

// GetStanding fetches the overall medal standing of a group.
func (gc *GroupCache) GetStanding(ctx context.Context, groupID shared.GroupID) ([]application.StandingRow, error) {
	var rows []application.StandingRow
	if err := gc.cache.Get(ctx, StandingKey(groupID.Int64()), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// InvalidateGroup drops every cached snapshot of one group, called
// after mutations that change what the front-end should see.
func (gc *GroupCache) InvalidateGroup(ctx context.Context, groupID shared.GroupID) error {
	if err := gc.cache.DeleteByPattern(ctx, BoardPattern(groupID.Int64())); err != nil {
		return err
	}
	return gc.cache.Delete(ctx, StandingKey(groupID.Int64()))
}
