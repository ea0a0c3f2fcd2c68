// Package room implements the authoritative per-room state machine: it owns
// every shared entity, arbitrates concurrent edits through piece holder
// locks, derives roof geometry, keeps per-user undo logs, and mirrors each
// mutation as a broadcast event.
//
// Every mutating operation is one synchronous call under the room mutex, so
// mutations never interleave and there is no partial-failure state. The
// "lock" on a piece is the HeldBy field, not a mutex.
package room

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
	"github.com/ovenbird/gingerhaus/internal/limiter"
)

// Config carries the per-room tunables. Zero values are not usable; build
// from DefaultConfig or the loaded app config.
type Config struct {
	MaxUsers          int
	MaxPieces         int
	UndoDepth         int
	CellSize          float64
	SearchRadius      int
	Bounds            geometry.Bounds
	RoofEpsilon       float64
	RoofOverhang      float64
	RoofMaxCycle      int
	BroadcastInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxUsers:          6,
		MaxPieces:         200,
		UndoDepth:         10,
		CellSize:          1.0,
		SearchRadius:      5,
		Bounds:            geometry.Bounds{MinX: -20, MaxX: 20, MinZ: -20, MaxZ: 20},
		RoofEpsilon:       0.25,
		RoofOverhang:      0.6,
		RoofMaxCycle:      12,
		BroadcastInterval: 50 * time.Millisecond,
	}
}

// transform is the last committed placement of a piece, kept while it is
// held so a failed release can revert.
type transform struct {
	Pos        geometry.Vec3
	Yaw        float64
	AttachedTo domain.AttachmentID
	Normal     *geometry.Vec3
}

type Room struct {
	mu  sync.Mutex
	cfg Config
	log zerolog.Logger

	code   domain.RoomCode
	hostID domain.UserID

	users  map[domain.UserID]*domain.User
	pieces map[domain.PieceID]*domain.Piece
	walls  map[domain.WallID]*domain.Wall
	icing  map[domain.IcingID]*domain.IcingStroke

	// occupancy maps grid cells to finalized, unattached pieces. Derived:
	// always rebuildable from piece positions.
	occupancy map[geometry.CellKey]domain.PieceID
	heldPrev  map[domain.PieceID]transform

	undo map[domain.UserID][]undoRecord
	chat []domain.ChatMessage

	colors   *domain.ColorPool
	members  map[domain.UserID]Sender
	throttle *limiter.BroadcastThrottler

	dirty      atomic.Bool
	emptySince time.Time
}

func New(code domain.RoomCode, cfg Config, log zerolog.Logger) *Room {
	return &Room{
		cfg:        cfg,
		log:        log.With().Str("module", "room").Str("room", string(code)).Logger(),
		code:       code,
		users:      make(map[domain.UserID]*domain.User),
		pieces:     make(map[domain.PieceID]*domain.Piece),
		walls:      make(map[domain.WallID]*domain.Wall),
		icing:      make(map[domain.IcingID]*domain.IcingStroke),
		occupancy:  make(map[geometry.CellKey]domain.PieceID),
		heldPrev:   make(map[domain.PieceID]transform),
		undo:       make(map[domain.UserID][]undoRecord),
		colors:     domain.NewColorPool(),
		members:    make(map[domain.UserID]Sender),
		throttle:   limiter.NewBroadcastThrottler(cfg.BroadcastInterval, nil),
		emptySince: time.Now(),
	}
}

func (r *Room) Code() domain.RoomCode { return r.code }

// Dirty reports whether a mutation happened since the last ClearDirty.
func (r *Room) Dirty() bool { return r.dirty.Load() }

func (r *Room) ClearDirty() { r.dirty.Store(false) }

// MarkDirtyAgain re-flags the room after a failed flush.
func (r *Room) MarkDirtyAgain() { r.dirty.Store(true) }

func (r *Room) markDirty() { r.dirty.Store(true) }

// ---- membership ----

// AddUser seats a new user, assigning the next palette color. The first
// seated user becomes host.
func (r *Room) AddUser(name string) (*domain.User, *Error) {
	u, err := domain.NewUser(name)
	if err != nil {
		return nil, fail(CodeInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.users) >= r.cfg.MaxUsers {
		return nil, fail(CodeRoomFull)
	}
	u.Color = r.colors.Acquire()
	r.users[u.ID] = u
	if r.hostID == "" {
		r.hostID = u.ID
	}
	r.markDirty()

	r.broadcastExceptLocked(u.ID, Event{Type: EvUserJoined, Data: u.Clone()})
	if r.hostID == u.ID {
		r.broadcastLocked(Event{Type: EvHostChanged, Data: map[string]any{"hostId": u.ID}})
	}
	r.log.Info().Str("user", string(u.ID)).Str("name", u.Name).Msg("user joined")
	return u.Clone(), nil
}

// ReconnectUser revives a seated identity inside the grace window. The undo
// stack and color survive because the user record never left.
func (r *Room) ReconnectUser(id domain.UserID) (*domain.User, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fail(CodeUserNotFound)
	}
	u.Active = true
	if r.hostID == "" {
		// hydrated rooms come up hostless; first seat back in takes it
		r.hostID = id
		r.broadcastLocked(Event{Type: EvHostChanged, Data: map[string]any{"hostId": id}})
	}
	r.broadcastExceptLocked(id, Event{Type: EvUserJoined, Data: u.Clone()})
	r.log.Info().Str("user", string(id)).Msg("user reconnected")
	return u.Clone(), nil
}

// MarkDisconnected force-releases everything the user holds and flags the
// seat inactive, but keeps the identity for the reconnection grace window.
// Host role moves immediately so the room never sits hostless.
func (r *Room) MarkDisconnected(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return
	}
	u.Active = false
	r.forceReleaseLocked(id)
	r.transferHostLocked(id)
	r.markDirty()
	r.log.Info().Str("user", string(id)).Msg("user disconnected")
}

// RemoveUser permanently evicts a seat: color returns to the pool, the undo
// stack is dropped, remaining members learn the user left.
func (r *Room) RemoveUser(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return
	}
	r.forceReleaseLocked(id)
	r.colors.Release(u.Color)
	delete(r.users, id)
	delete(r.undo, id)
	delete(r.members, id)
	r.transferHostLocked(id)
	r.markDirty()
	r.broadcastLocked(Event{Type: EvUserLeft, Data: map[string]any{"userId": id}})
	r.log.Info().Str("user", string(id)).Msg("user removed")
}

// forceReleaseLocked puts every piece held by the user back into occupancy
// at its last committed transform, positions untouched.
func (r *Room) forceReleaseLocked(id domain.UserID) {
	for pid, p := range r.pieces {
		if p.HeldBy != id {
			continue
		}
		prev, ok := r.heldPrev[pid]
		if ok {
			p.Pos = prev.Pos
			p.Yaw = prev.Yaw
			p.AttachedTo = prev.AttachedTo
			p.Normal = prev.Normal
		}
		p.HeldBy = ""
		p.Version++
		delete(r.heldPrev, pid)
		r.placeLocked(p)
		r.throttle.Force(string(pid))
		r.broadcastLocked(pieceEvent(EvPieceReleased, p))
	}
}

func (r *Room) transferHostLocked(departing domain.UserID) {
	if r.hostID != departing {
		return
	}
	r.hostID = ""
	for uid, u := range r.users {
		if uid == departing {
			continue
		}
		if !u.Active {
			continue
		}
		r.hostID = uid
		break
	}
	if r.hostID == "" {
		// nobody active; any remaining seat will do
		for uid := range r.users {
			if uid != departing {
				r.hostID = uid
				break
			}
		}
	}
	if r.hostID != "" {
		r.broadcastLocked(Event{Type: EvHostChanged, Data: map[string]any{"hostId": r.hostID}})
	}
}

func (r *Room) HostID() domain.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// ---- transport attachment ----

// Attach binds a member's transport endpoint for event fan-out.
func (r *Room) Attach(id domain.UserID, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id] = s
}

func (r *Room) Detach(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, id)
	if len(r.members) == 0 {
		r.emptySince = time.Now()
	}
}

// EmptySince returns the time the last live connection went away, or zero
// time if members are attached.
func (r *Room) EmptySince() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return time.Time{}, false
	}
	return r.emptySince, true
}

func (r *Room) broadcastLocked(ev Event) {
	for uid, s := range r.members {
		if err := s.TrySend(ev); err != nil {
			r.log.Debug().Str("user", string(uid)).Str("event", ev.Type).Msg("dropped event: slow consumer")
		}
	}
}

func (r *Room) broadcastExceptLocked(skip domain.UserID, ev Event) {
	for uid, s := range r.members {
		if uid == skip {
			continue
		}
		if err := s.TrySend(ev); err != nil {
			r.log.Debug().Str("user", string(uid)).Str("event", ev.Type).Msg("dropped event: slow consumer")
		}
	}
}

// ---- chat & cursors ----

func (r *Room) SendChat(id domain.UserID, text string) (domain.ChatMessage, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ChatMessage{}, fail(CodeUserNotFound)
	}
	msg, err := domain.NewChatMessage(u, text)
	if err != nil {
		return domain.ChatMessage{}, fail(CodeInvalidChat)
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > domain.MaxChatHistory {
		r.chat = r.chat[len(r.chat)-domain.MaxChatHistory:]
	}
	r.markDirty()
	r.broadcastLocked(Event{Type: EvChatMessage, Data: msg})
	return msg, nil
}

// UpdateCursor records presence. Fan-out is throttled per user; the cursor
// itself always updates so idleness tracking stays accurate.
func (r *Room) UpdateCursor(id domain.UserID, pos geometry.Vec3) *Error {
	// fire-and-forget intent: a garbage position is dropped, not reported
	if !pos.Finite() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fail(CodeUserNotFound)
	}
	u.Cursor = pos
	u.CursorAt = time.Now()
	u.Active = true
	if r.throttle.Allow("cursor:" + string(id)) {
		r.broadcastExceptLocked(id, Event{Type: EvCursorMoved, Data: map[string]any{
			"userId": id,
			"pos":    pos,
		}})
	}
	return nil
}

// MarkIdle flags users whose last cursor activity predates the cutoff.
func (r *Room) MarkIdle(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.Active && u.CursorAt.Before(cutoff) {
			u.Active = false
			r.broadcastLocked(Event{Type: EvUserIdle, Data: map[string]any{"userId": id}})
		}
	}
}

// ---- reset ----

// ResetRoom clears all pieces, walls, icing, and undo stacks. Host only.
// Users, colors, and chat survive.
func (r *Room) ResetRoom(id domain.UserID) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fail(CodeUserNotFound)
	}
	if r.hostID != id {
		return fail(CodeNotHost)
	}

	r.pieces = make(map[domain.PieceID]*domain.Piece)
	r.walls = make(map[domain.WallID]*domain.Wall)
	r.icing = make(map[domain.IcingID]*domain.IcingStroke)
	r.occupancy = make(map[geometry.CellKey]domain.PieceID)
	r.heldPrev = make(map[domain.PieceID]transform)
	r.undo = make(map[domain.UserID][]undoRecord)
	r.markDirty()
	r.broadcastLocked(Event{Type: EvRoomReset})
	r.log.Info().Str("user", string(id)).Msg("room reset")
	return nil
}
