package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

func july2025() shared.Period {
	return shared.MonthOf(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
}

func TestCache_GetOrCompute_ComputesOnceWhileFresh(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	c := NewCache(90 * time.Second)
	c.now = func() time.Time { return now }

	calls := 0
	compute := func() (GroupStats, error) {
		calls++
		return GroupStats{}, nil
	}

	_, err := c.GetOrCompute(july2025(), compute)
	assert.NoError(t, err)
	_, err = c.GetOrCompute(july2025(), compute)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCache_GetOrCompute_RecomputesAfterTTL(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	c := NewCache(90 * time.Second)
	c.now = func() time.Time { return now }

	calls := 0
	compute := func() (GroupStats, error) {
		calls++
		return GroupStats{}, nil
	}

	_, _ = c.GetOrCompute(july2025(), compute)

	now = now.Add(89 * time.Second)
	_, _ = c.GetOrCompute(july2025(), compute)
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Second)
	_, _ = c.GetOrCompute(july2025(), compute)
	assert.Equal(t, 2, calls)
}

func TestCache_GetOrCompute_DifferentPeriodEvictsSlot(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	c := NewCache(90 * time.Second)
	c.now = func() time.Time { return now }

	calls := 0
	compute := func() (GroupStats, error) {
		calls++
		return GroupStats{}, nil
	}

	month := july2025()
	year := shared.YearOf(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))

	// Alternating periods never hit: the cache holds a single slot.
	_, _ = c.GetOrCompute(month, compute)
	_, _ = c.GetOrCompute(year, compute)
	_, _ = c.GetOrCompute(month, compute)
	assert.Equal(t, 3, calls)
}

func TestCache_GetOrCompute_ErrorsAreNotCached(t *testing.T) {
	c := NewCache(90 * time.Second)

	boom := errors.New("provider down")
	_, err := c.GetOrCompute(july2025(), func() (GroupStats, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	// The failed compute left no slot behind.
	calls := 0
	payload, err := c.GetOrCompute(july2025(), func() (GroupStats, error) {
		calls++
		return GroupStats{}, nil
	})
	assert.NoError(t, err)
	assert.NotNil(t, payload)
	assert.Equal(t, 1, calls)
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache(90 * time.Second)

	calls := 0
	compute := func() (GroupStats, error) {
		calls++
		return GroupStats{}, nil
	}

	_, _ = c.GetOrCompute(july2025(), compute)
	c.Invalidate()
	_, _ = c.GetOrCompute(july2025(), compute)
	assert.Equal(t, 2, calls)
}

func TestNewCache_NonPositiveTTLFallsBack(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, DefaultTTL, c.ttl)
}
