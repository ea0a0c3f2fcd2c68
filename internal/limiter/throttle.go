package limiter

import (
	"sync"
	"time"
)

// BroadcastThrottler caps how often per-entity updates fan out to a room,
// independent of how fast the holder streams them in.
type BroadcastThrottler struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
	now      func() time.Time
}

func NewBroadcastThrottler(interval time.Duration, now func() time.Time) *BroadcastThrottler {
	if now == nil {
		now = time.Now
	}
	return &BroadcastThrottler{
		last:     make(map[string]time.Time),
		interval: interval,
		now:      now,
	}
}

// Allow reports whether the minimum inter-broadcast interval has elapsed for
// the entity, marking "just sent" when it has.
func (t *BroadcastThrottler) Allow(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[id]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[id] = now
	return true
}

// Force unconditionally marks the entity as just sent. The final transform of
// a released piece always goes out, even if a throttled update preceded it.
func (t *BroadcastThrottler) Force(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[id] = t.now()
}

// Forget drops the entity's throttle record once it no longer exists.
func (t *BroadcastThrottler) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, id)
}
