// Package limiter provides admission control for client intents and fan-out
// throttling for high-frequency broadcasts. Both are wall-clock driven with
// an injectable clock so tests stay deterministic.
package limiter

import (
	"sync"
	"time"
)

// OpClass names one rate-limited intent class. A class with no configured
// limit is implicitly unlimited.
type OpClass string

const (
	OpJoin        OpClass = "join"
	OpSpawn       OpClass = "spawn"
	OpDelete      OpClass = "delete"
	OpCreateWall  OpClass = "create_wall"
	OpCreateFence OpClass = "create_fence"
	OpCreateIcing OpClass = "create_icing"
	OpChat        OpClass = "chat"
	OpReset       OpClass = "reset"
	OpUndo        OpClass = "undo"
	OpCursor      OpClass = "cursor"
	OpTransform   OpClass = "transform"
)

// Limit is tokens-per-second refill up to Burst capacity.
type Limit struct {
	Rate  float64 `mapstructure:"rate"`
	Burst float64 `mapstructure:"burst"`
}

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter holds one token bucket per operation class for a single
// connection. Buckets start full, refill continuously, and a denied call
// leaves the bucket untouched apart from the refill.
type Limiter struct {
	mu      sync.Mutex
	limits  map[OpClass]Limit
	buckets map[OpClass]*bucket
	now     func() time.Time
}

func New(limits map[OpClass]Limit, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[OpClass]*bucket, len(limits)),
		now:     now,
	}
}

// Allow consumes one token from the class bucket if available.
func (l *Limiter) Allow(class OpClass) bool {
	limit, ok := l.limits[class]
	if !ok {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[class]
	if !ok {
		b = &bucket{tokens: limit.Burst, last: now}
		l.buckets[class] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * limit.Rate
		if b.tokens > limit.Burst {
			b.tokens = limit.Burst
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
