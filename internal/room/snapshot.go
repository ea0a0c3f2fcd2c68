package room

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovenbird/gingerhaus/internal/domain"
)

// Snapshot serializes the full room state. Entity slices are sorted by id so
// persisted files stay byte-stable across flushes of an unchanged room.
func (r *Room) Snapshot() *domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &domain.RoomSnapshot{
		Code:       r.code,
		HostID:     r.hostID,
		Users:      make([]*domain.User, 0, len(r.users)),
		Pieces:     make([]*domain.Piece, 0, len(r.pieces)),
		Walls:      make([]*domain.Wall, 0, len(r.walls)),
		Icing:      make([]*domain.IcingStroke, 0, len(r.icing)),
		Chat:       append([]domain.ChatMessage(nil), r.chat...),
		PieceCount: len(r.pieces),
		MaxPieces:  r.cfg.MaxPieces,
		SavedAt:    time.Now(),
	}
	for _, u := range r.users {
		snap.Users = append(snap.Users, u.Clone())
	}
	for _, p := range r.pieces {
		snap.Pieces = append(snap.Pieces, p.Clone())
	}
	for _, w := range r.walls {
		snap.Walls = append(snap.Walls, w.Clone())
	}
	for _, s := range r.icing {
		snap.Icing = append(snap.Icing, s.Clone())
	}
	sort.Slice(snap.Users, func(i, j int) bool { return snap.Users[i].ID < snap.Users[j].ID })
	sort.Slice(snap.Pieces, func(i, j int) bool { return snap.Pieces[i].ID < snap.Pieces[j].ID })
	sort.Slice(snap.Walls, func(i, j int) bool { return snap.Walls[i].ID < snap.Walls[j].ID })
	sort.Slice(snap.Icing, func(i, j int) bool { return snap.Icing[i].ID < snap.Icing[j].ID })
	return snap
}

// NewFromSnapshot hydrates a room from persisted state. Holder locks and the
// host assignment cannot survive a restart, so both reset; everything else
// loads verbatim (chat capped to the retained window) and the occupancy
// index is rebuilt from piece positions.
func NewFromSnapshot(snap *domain.RoomSnapshot, cfg Config, log zerolog.Logger) *Room {
	r := New(snap.Code, cfg, log)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range snap.Users {
		c := u.Clone()
		c.Active = false
		r.users[c.ID] = c
		r.colors.MarkUsed(c.Color)
	}
	for _, p := range snap.Pieces {
		c := p.Clone()
		c.HeldBy = ""
		r.pieces[c.ID] = c
	}
	for _, w := range snap.Walls {
		r.walls[w.ID] = w.Clone()
	}
	for _, s := range snap.Icing {
		r.icing[s.ID] = s.Clone()
	}
	chat := snap.Chat
	if len(chat) > domain.MaxChatHistory {
		chat = chat[len(chat)-domain.MaxChatHistory:]
	}
	r.chat = append([]domain.ChatMessage(nil), chat...)
	r.occupancy = r.rebuildOccupancyLocked()
	return r
}
