package stats

import (
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// DefaultTTL is the default snapshot lifetime. Chat groups re-request the
// same ranking in bursts; anything older than this is recomputed.
const DefaultTTL = 90 * time.Second

// Snapshot is one memoized aggregation result.
type Snapshot struct {
	Period     shared.Period
	ComputedAt time.Time
	Payload    GroupStats
}

// Cache memoizes the aggregator's output for one group. It holds a single
// slot: a request for a different period evicts the previous entry, so
// memory stays bounded and alternating periods always recompute.
//
// A Cache is owned by its group's engine and lives exactly as long as it
// does. It is not safe for concurrent use; the upstream command queue
// delivers one in-flight command per chat group at a time. If that
// discipline is violated, the last completed computation wins the slot.
type Cache struct {
	ttl  time.Duration
	slot *Snapshot

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewCache creates an empty cache with the given TTL.
// Non-positive TTL falls back to DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now}
}

// GetOrCompute returns the cached payload when the slot exists, is fresh,
// and covers exactly the requested period. Otherwise it invokes compute
// and stores the result. A failed compute propagates unchanged and leaves
// the slot untouched: errors are never cached.
func (c *Cache) GetOrCompute(period shared.Period, compute func() (GroupStats, error)) (GroupStats, error) {
	if c.slot != nil &&
		c.now().Sub(c.slot.ComputedAt) < c.ttl &&
		c.slot.Period.Equal(period) {
		return c.slot.Payload, nil
	}

	payload, err := compute()
	if err != nil {
		return nil, err
	}

	c.slot = &Snapshot{
		Period:     period,
		ComputedAt: c.now(),
		Payload:    payload,
	}
	return payload, nil
}

// Invalidate drops the slot. Mutations that change aggregation inputs
// (ignore-list additions, athlete removal) call this so the next read
// recomputes.
func (c *Cache) Invalidate() {
	c.slot = nil
}
