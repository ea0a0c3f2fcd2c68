// Package app wires rooms to the outside world: the room registry, the
// connection routing table, reconnection grace, periodic sweeps, and
// write-coalesced persistence.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/room"
	"github.com/ovenbird/gingerhaus/internal/store"
)

// ConnID identifies one transport connection (the client-token cookie).
type ConnID string

// Config carries manager-level tunables alongside the per-room config.
type Config struct {
	Room         room.Config
	GraceWindow  time.Duration
	IdleAfter    time.Duration
	EmptyRoomTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Room:         room.DefaultConfig(),
		GraceWindow:  30 * time.Second,
		IdleAfter:    2 * time.Minute,
		EmptyRoomTTL: 10 * time.Minute,
	}
}

type route struct {
	code domain.RoomCode
	user domain.UserID
}

type disconnectRecord struct {
	code domain.RoomCode
	at   time.Time
}

// Manager is constructed once at process start and injected into the
// transport layer; it owns every live room on this process.
type Manager struct {
	cfg   Config
	log   zerolog.Logger
	store store.SnapshotStore
	now   func() time.Time

	mu          sync.Mutex
	rooms       map[domain.RoomCode]*room.Room
	conns       map[ConnID]route
	disconnects map[domain.UserID]disconnectRecord

	flushMu       sync.Mutex
	flushInFlight bool
	flushPending  bool
}

func NewManager(cfg Config, st store.SnapshotStore, log zerolog.Logger, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		cfg:         cfg,
		log:         log.With().Str("module", "app.manager").Logger(),
		store:       st,
		now:         now,
		rooms:       make(map[domain.RoomCode]*room.Room),
		conns:       make(map[ConnID]route),
		disconnects: make(map[domain.UserID]disconnectRecord),
	}
}

// Hydrate loads every stored snapshot into a live room. Loaded users get a
// disconnect record so their identity is reclaimable for one grace window
// after boot, then sweeps retire them.
func (m *Manager) Hydrate(ctx context.Context) error {
	snaps, err := m.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, snap := range snaps {
		r := room.NewFromSnapshot(snap, m.cfg.Room, m.log)
		m.rooms[snap.Code] = r
		for _, u := range snap.Users {
			m.disconnects[u.ID] = disconnectRecord{code: snap.Code, at: now}
		}
	}
	m.log.Info().Int("rooms", len(snaps)).Msg("hydrated rooms from snapshot store")
	return nil
}

// CreateRoom allocates an unused code and registers an empty room.
func (m *Manager) CreateRoom() *room.Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := randomRoomCode()
	for m.rooms[code] != nil {
		code = randomRoomCode()
	}
	r := room.New(code, m.cfg.Room, m.log)
	m.rooms[code] = r
	m.log.Info().Str("room", string(code)).Msg("room created")
	return r
}

// JoinResult is the response payload of a successful join.
type JoinResult struct {
	User        *domain.User         `json:"user"`
	Snapshot    *domain.RoomSnapshot `json:"snapshot"`
	HostID      domain.UserID        `json:"hostId"`
	IsReconnect bool                 `json:"isReconnect"`
}

// JoinRoom seats (or re-seats) a user and binds the connection to the room.
// A previousUserId pointing at a disconnect record inside the grace window
// restores that identity — undo stack included — instead of minting a new
// user.
func (m *Manager) JoinRoom(conn ConnID, code domain.RoomCode, name string, prevUser domain.UserID, sender room.Sender) (JoinResult, *room.Error) {
	if !ValidRoomCode(code) {
		return JoinResult{}, &room.Error{Code: room.CodeInvalidRoomCode}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// a connection can only be in one room; joining again moves it
	if old, ok := m.conns[conn]; ok {
		m.disconnectLocked(conn, old)
	}

	r, ok := m.rooms[code]
	if !ok {
		loaded, err := m.reviveLocked(code)
		if err != nil {
			return JoinResult{}, &room.Error{Code: room.CodeRoomNotFound}
		}
		r = loaded
	}

	var (
		u     *domain.User
		rerr  *room.Error
		recon bool
	)
	if rec, ok := m.disconnects[prevUser]; ok && prevUser != "" && rec.code == code && m.now().Sub(rec.at) <= m.cfg.GraceWindow {
		u, rerr = r.ReconnectUser(prevUser)
		recon = rerr == nil
		if recon {
			delete(m.disconnects, prevUser)
		}
	}
	if u == nil {
		u, rerr = r.AddUser(name)
		if rerr != nil {
			return JoinResult{}, rerr
		}
	}

	r.Attach(u.ID, sender)
	m.conns[conn] = route{code: code, user: u.ID}
	return JoinResult{User: u, Snapshot: r.Snapshot(), HostID: r.HostID(), IsReconnect: recon}, nil
}

// reviveLocked resurrects a room whose snapshot outlived its in-memory
// lifetime (empty-room cleanup or a cold code from a previous run).
func (m *Manager) reviveLocked(code domain.RoomCode) (*room.Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := m.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	r := room.NewFromSnapshot(snap, m.cfg.Room, m.log)
	m.rooms[code] = r
	now := m.now()
	for _, u := range snap.Users {
		m.disconnects[u.ID] = disconnectRecord{code: code, at: now}
	}
	m.log.Info().Str("room", string(code)).Msg("room revived from snapshot")
	return r, nil
}

// Resolve maps a connection to its room and user.
func (m *Manager) Resolve(conn ConnID) (*room.Room, domain.UserID, *room.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, ok := m.conns[conn]
	if !ok {
		return nil, "", &room.Error{Code: room.CodeNotInRoom}
	}
	r, ok := m.rooms[rt.code]
	if !ok {
		return nil, "", &room.Error{Code: room.CodeRoomNotFound}
	}
	return r, rt.user, nil
}

// Disconnect handles a dropped connection: held pieces are force-released,
// the seat goes inactive, and the identity enters the grace table.
func (m *Manager) Disconnect(conn ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, ok := m.conns[conn]
	if !ok {
		return
	}
	m.disconnectLocked(conn, rt)
}

func (m *Manager) disconnectLocked(conn ConnID, rt route) {
	delete(m.conns, conn)
	r, ok := m.rooms[rt.code]
	if !ok {
		return
	}
	r.Detach(rt.user)
	r.MarkDisconnected(rt.user)
	m.disconnects[rt.user] = disconnectRecord{code: rt.code, at: m.now()}
}

// Sweep runs the periodic maintenance pass: expire disconnect records, mark
// idle users, retire long-empty rooms, and kick off a coalesced flush.
func (m *Manager) Sweep(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	for uid, rec := range m.disconnects {
		if now.Sub(rec.at) <= m.cfg.GraceWindow {
			continue
		}
		delete(m.disconnects, uid)
		if r, ok := m.rooms[rec.code]; ok {
			r.RemoveUser(uid)
		}
	}
	// snapshot retirees under the lock, save after releasing it so a slow
	// store never stalls intent routing
	var retired []*domain.RoomSnapshot
	for code, r := range m.rooms {
		r.MarkIdle(now.Add(-m.cfg.IdleAfter))
		if since, empty := r.EmptySince(); empty && now.Sub(since) > m.cfg.EmptyRoomTTL {
			if r.Dirty() {
				r.ClearDirty()
				retired = append(retired, r.Snapshot())
			}
			delete(m.rooms, code)
			m.log.Info().Str("room", string(code)).Msg("empty room retired")
		}
	}
	m.mu.Unlock()

	for _, snap := range retired {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := m.store.Save(sctx, snap); err != nil {
			m.log.Error().Err(err).Str("room", string(snap.Code)).Msg("final flush of empty room failed")
		}
		cancel()
	}

	m.RequestFlush()
}

// RoomCount reports live rooms (transport health endpoint).
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// RoomOccupancy reports seats taken for a code, reviving from the store if
// needed so the REST probe works for cold rooms too.
func (m *Manager) RoomOccupancy(code domain.RoomCode) (int, *room.Error) {
	if !ValidRoomCode(code) {
		return 0, &room.Error{Code: room.CodeInvalidRoomCode}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		loaded, err := m.reviveLocked(code)
		if err != nil {
			return 0, &room.Error{Code: room.CodeRoomNotFound}
		}
		r = loaded
	}
	return r.UserCount(), nil
}
