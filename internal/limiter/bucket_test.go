package limiter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ovenbird/gingerhaus/internal/limiter"
)

// fakeClock steps time manually so refill math is exact.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiterBurstThenDeny(t *testing.T) {
	clock := newFakeClock()
	l := limiter.New(map[limiter.OpClass]limiter.Limit{
		limiter.OpSpawn: {Rate: 1, Burst: 3},
	}, clock.now)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(limiter.OpSpawn), "burst call %d", i)
	}
	assert.False(t, l.Allow(limiter.OpSpawn))
}

func TestLimiterRefills(t *testing.T) {
	clock := newFakeClock()
	l := limiter.New(map[limiter.OpClass]limiter.Limit{
		limiter.OpChat: {Rate: 2, Burst: 2},
	}, clock.now)

	assert.True(t, l.Allow(limiter.OpChat))
	assert.True(t, l.Allow(limiter.OpChat))
	assert.False(t, l.Allow(limiter.OpChat))

	clock.advance(500 * time.Millisecond) // one token at 2/s
	assert.True(t, l.Allow(limiter.OpChat))
	assert.False(t, l.Allow(limiter.OpChat))
}

func TestLimiterRefillCapsAtBurst(t *testing.T) {
	clock := newFakeClock()
	l := limiter.New(map[limiter.OpClass]limiter.Limit{
		limiter.OpUndo: {Rate: 10, Burst: 2},
	}, clock.now)

	assert.True(t, l.Allow(limiter.OpUndo))
	clock.advance(time.Hour)

	assert.True(t, l.Allow(limiter.OpUndo))
	assert.True(t, l.Allow(limiter.OpUndo))
	assert.False(t, l.Allow(limiter.OpUndo), "an idle hour must not bank more than burst")
}

func TestLimiterDenialConsumesNothing(t *testing.T) {
	clock := newFakeClock()
	l := limiter.New(map[limiter.OpClass]limiter.Limit{
		limiter.OpReset: {Rate: 1, Burst: 1},
	}, clock.now)

	assert.True(t, l.Allow(limiter.OpReset))
	for i := 0; i < 10; i++ {
		assert.False(t, l.Allow(limiter.OpReset))
	}
	// hammering while empty must not push the next allowance further out
	clock.advance(time.Second)
	assert.True(t, l.Allow(limiter.OpReset))
}

func TestLimiterUnconfiguredClassUnlimited(t *testing.T) {
	l := limiter.New(map[limiter.OpClass]limiter.Limit{}, nil)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(limiter.OpCursor))
	}
}

func TestLimiterClassesIndependent(t *testing.T) {
	clock := newFakeClock()
	l := limiter.New(map[limiter.OpClass]limiter.Limit{
		limiter.OpSpawn: {Rate: 1, Burst: 1},
		limiter.OpChat:  {Rate: 1, Burst: 1},
	}, clock.now)

	assert.True(t, l.Allow(limiter.OpSpawn))
	assert.False(t, l.Allow(limiter.OpSpawn))
	assert.True(t, l.Allow(limiter.OpChat), "spawn exhaustion must not touch chat")
}
