package app

import (
	"context"
	"time"

	"github.com/ovenbird/gingerhaus/internal/room"
)

// RequestFlush schedules a flush of every dirty room. Requests arriving
// while a flush is in flight coalesce into one follow-up pass instead of
// queuing; intent handling never blocks on persistence I/O.
func (m *Manager) RequestFlush() {
	m.flushMu.Lock()
	if m.flushInFlight {
		m.flushPending = true
		m.flushMu.Unlock()
		return
	}
	m.flushInFlight = true
	m.flushMu.Unlock()

	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			m.flushDirty(ctx)
			cancel()

			m.flushMu.Lock()
			if m.flushPending {
				m.flushPending = false
				m.flushMu.Unlock()
				continue
			}
			m.flushInFlight = false
			m.flushMu.Unlock()
			return
		}
	}()
}

// flushDirty persists every room whose dirty flag is set. The flag clears
// before the save so mutations landing mid-flush re-dirty the room; a failed
// save re-marks it for the next pass.
func (m *Manager) flushDirty(ctx context.Context) {
	for _, r := range m.liveRooms() {
		if !r.Dirty() {
			continue
		}
		r.ClearDirty()
		if err := m.store.Save(ctx, r.Snapshot()); err != nil {
			m.log.Error().Err(err).Str("room", string(r.Code())).Msg("snapshot flush failed")
			r.MarkDirtyAgain()
		}
	}
}

// FlushAll persists every live room regardless of dirtiness; the shutdown
// path calls this once the listeners are down.
func (m *Manager) FlushAll(ctx context.Context) {
	for _, r := range m.liveRooms() {
		r.ClearDirty()
		if err := m.store.Save(ctx, r.Snapshot()); err != nil {
			m.log.Error().Err(err).Str("room", string(r.Code())).Msg("shutdown flush failed")
		}
	}
}

func (m *Manager) liveRooms() []*room.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}
