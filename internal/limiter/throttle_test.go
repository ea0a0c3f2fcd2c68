package limiter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ovenbird/gingerhaus/internal/limiter"
)

func TestThrottlerEnforcesInterval(t *testing.T) {
	clock := newFakeClock()
	th := limiter.NewBroadcastThrottler(50*time.Millisecond, clock.now)

	assert.True(t, th.Allow("piece:a"))
	assert.False(t, th.Allow("piece:a"))

	clock.advance(49 * time.Millisecond)
	assert.False(t, th.Allow("piece:a"))

	clock.advance(1 * time.Millisecond)
	assert.True(t, th.Allow("piece:a"))
}

func TestThrottlerEntitiesIndependent(t *testing.T) {
	clock := newFakeClock()
	th := limiter.NewBroadcastThrottler(50*time.Millisecond, clock.now)

	assert.True(t, th.Allow("piece:a"))
	assert.True(t, th.Allow("piece:b"))
}

func TestThrottlerForceResetsWindow(t *testing.T) {
	clock := newFakeClock()
	th := limiter.NewBroadcastThrottler(50*time.Millisecond, clock.now)

	assert.True(t, th.Allow("piece:a"))
	clock.advance(50 * time.Millisecond)
	th.Force("piece:a")
	// Force counts as a send, so the window restarts
	assert.False(t, th.Allow("piece:a"))
}

func TestThrottlerForget(t *testing.T) {
	clock := newFakeClock()
	th := limiter.NewBroadcastThrottler(50*time.Millisecond, clock.now)

	assert.True(t, th.Allow("piece:a"))
	th.Forget("piece:a")
	assert.True(t, th.Allow("piece:a"), "a forgotten entity starts fresh")
}
