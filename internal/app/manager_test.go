package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/gingerhaus/internal/app"
	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/room"
	"github.com/ovenbird/gingerhaus/internal/store"
)

// fakeClock starts at the real present so it stays comparable with the
// wall-clock timestamps rooms record internally.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Now()} }

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type nullSender struct{}

func (nullSender) TrySend(room.Event) error { return nil }

func newTestManager(t *testing.T) (*app.Manager, *fakeClock, store.SnapshotStore) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	clock := newFakeClock()
	cfg := app.DefaultConfig()
	cfg.Room.BroadcastInterval = 0
	m := app.NewManager(cfg, st, zerolog.Nop(), clock.now)
	return m, clock, st
}

func TestCreateAndJoinRoom(t *testing.T) {
	m, _, _ := newTestManager(t)

	r := m.CreateRoom()
	require.True(t, app.ValidRoomCode(r.Code()))
	assert.Equal(t, 1, m.RoomCount())

	res, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)
	assert.Equal(t, "Ada", res.User.Name)
	assert.Equal(t, res.User.ID, res.HostID)
	assert.False(t, res.IsReconnect)
	require.NotNil(t, res.Snapshot)
	assert.Len(t, res.Snapshot.Users, 1)
}

func TestJoinRejectsBadCodes(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, rerr := m.JoinRoom("conn1", "abc", "Ada", "", nullSender{})
	require.NotNil(t, rerr)
	assert.Equal(t, room.CodeInvalidRoomCode, rerr.Code)

	// well-formed but unknown
	_, rerr = m.JoinRoom("conn1", "AAAAAA", "Ada", "", nullSender{})
	require.NotNil(t, rerr)
	assert.Equal(t, room.CodeRoomNotFound, rerr.Code)
}

func TestResolveRoutesConnection(t *testing.T) {
	m, _, _ := newTestManager(t)
	r := m.CreateRoom()

	res, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)

	got, uid, rerr := m.Resolve("conn1")
	require.Nil(t, rerr)
	assert.Equal(t, r.Code(), got.Code())
	assert.Equal(t, res.User.ID, uid)

	_, _, rerr = m.Resolve("stranger")
	require.NotNil(t, rerr)
	assert.Equal(t, room.CodeNotInRoom, rerr.Code)
}

func TestReconnectWithinGrace(t *testing.T) {
	m, clock, _ := newTestManager(t)
	r := m.CreateRoom()

	first, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)
	m.Disconnect("conn1")

	clock.advance(10 * time.Second) // still inside the 30s grace window
	again, rerr := m.JoinRoom("conn2", r.Code(), "Ada", first.User.ID, nullSender{})
	require.Nil(t, rerr)
	assert.True(t, again.IsReconnect)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Equal(t, 1, r.UserCount(), "no duplicate seat")
}

func TestReconnectAfterGraceMintsNewUser(t *testing.T) {
	m, clock, _ := newTestManager(t)
	r := m.CreateRoom()

	first, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)
	m.Disconnect("conn1")

	clock.advance(time.Minute)
	m.Sweep(context.Background()) // grace expired: the seat is gone

	again, rerr := m.JoinRoom("conn2", r.Code(), "Ada", first.User.ID, nullSender{})
	require.Nil(t, rerr)
	assert.False(t, again.IsReconnect)
	assert.NotEqual(t, first.User.ID, again.User.ID)
	assert.Equal(t, 1, r.UserCount())
}

func TestSweepExpiresGraceRecords(t *testing.T) {
	m, clock, _ := newTestManager(t)
	r := m.CreateRoom()

	_, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)
	m.Disconnect("conn1")
	require.Equal(t, 1, r.UserCount(), "seat survives through the grace window")

	clock.advance(31 * time.Second)
	m.Sweep(context.Background())
	assert.Equal(t, 0, r.UserCount())
}

func TestJoinMovesConnectionBetweenRooms(t *testing.T) {
	m, _, _ := newTestManager(t)
	r1 := m.CreateRoom()
	r2 := m.CreateRoom()

	_, rerr := m.JoinRoom("conn1", r1.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)
	_, rerr = m.JoinRoom("conn1", r2.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)

	got, _, rerr := m.Resolve("conn1")
	require.Nil(t, rerr)
	assert.Equal(t, r2.Code(), got.Code())
}

func TestEmptyRoomRetiredThenRevived(t *testing.T) {
	m, clock, _ := newTestManager(t)
	r := m.CreateRoom()
	code := r.Code()

	res, rerr := m.JoinRoom("conn1", code, "Ada", "", nullSender{})
	require.Nil(t, rerr)
	_, rerr = r.SpawnPiece(domain.PieceGumdrop, res.User.ID)
	require.Nil(t, rerr)
	m.Disconnect("conn1")

	clock.advance(11 * time.Minute)
	m.Sweep(context.Background())
	assert.Equal(t, 0, m.RoomCount(), "empty room leaves memory")

	// joining the same code revives it from the snapshot store
	revived, rerr := m.JoinRoom("conn2", code, "Bo", "", nullSender{})
	require.Nil(t, rerr)
	assert.Equal(t, 1, m.RoomCount())
	assert.Equal(t, 1, revived.Snapshot.PieceCount, "state survived retirement")
}

// blockingStore holds every Save until released, to expose lock-holding
// callers.
type blockingStore struct {
	store.SnapshotStore
	enter   sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Save(ctx context.Context, snap *domain.RoomSnapshot) error {
	s.enter.Do(func() { close(s.entered) })
	select {
	case <-s.release:
		return s.SnapshotStore.Save(ctx, snap)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSweepSaveDoesNotBlockRouting(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	bs := &blockingStore{SnapshotStore: fs, entered: make(chan struct{}), release: make(chan struct{})}

	clock := newFakeClock()
	cfg := app.DefaultConfig()
	cfg.Room.BroadcastInterval = 0
	m := app.NewManager(cfg, bs, zerolog.Nop(), clock.now)

	r := m.CreateRoom()
	_, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)
	m.Disconnect("conn1")

	clock.advance(11 * time.Minute)
	done := make(chan struct{})
	go func() {
		m.Sweep(context.Background())
		close(done)
	}()
	<-bs.entered

	// the retiring room's snapshot write is in flight; routing must not wait
	r2 := m.CreateRoom()
	_, rerr = m.JoinRoom("conn2", r2.Code(), "Bo", "", nullSender{})
	require.Nil(t, rerr)

	close(bs.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not finish after the store unblocked")
	}
}

func TestFlushPersistsDirtyRooms(t *testing.T) {
	m, _, st := newTestManager(t)
	r := m.CreateRoom()

	_, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)
	require.True(t, r.Dirty())

	m.RequestFlush()
	require.Eventually(t, func() bool {
		_, err := st.Load(context.Background(), r.Code())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, r.Dirty())
}

func TestFlushAllOnShutdown(t *testing.T) {
	m, _, st := newTestManager(t)
	r := m.CreateRoom()
	_, rerr := m.JoinRoom("conn1", r.Code(), "Ada", "", nullSender{})
	require.Nil(t, rerr)

	m.FlushAll(context.Background())
	snap, err := st.Load(context.Background(), r.Code())
	require.NoError(t, err)
	assert.Len(t, snap.Users, 1)
}

func TestHydrateLoadsStoredRooms(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore(dir)
	require.NoError(t, err)

	seedCfg := app.DefaultConfig()
	seed := room.New("AAAAAA", seedCfg.Room, zerolog.Nop())
	u, rerr := seed.AddUser("Ada")
	require.Nil(t, rerr)
	require.NoError(t, st.Save(context.Background(), seed.Snapshot()))

	clock := newFakeClock()
	m := app.NewManager(app.DefaultConfig(), st, zerolog.Nop(), clock.now)
	require.NoError(t, m.Hydrate(context.Background()))
	assert.Equal(t, 1, m.RoomCount())

	seats, rerr := m.RoomOccupancy("AAAAAA")
	require.Nil(t, rerr)
	assert.Equal(t, 1, seats)

	// loaded identities are reclaimable inside one grace window
	res, rerr := m.JoinRoom("conn1", "AAAAAA", "Ada", u.ID, nullSender{})
	require.Nil(t, rerr)
	assert.True(t, res.IsReconnect)
	assert.Equal(t, u.ID, res.User.ID)
}

func TestRoomOccupancyValidation(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, rerr := m.RoomOccupancy("bad")
	require.NotNil(t, rerr)
	assert.Equal(t, room.CodeInvalidRoomCode, rerr.Code)

	_, rerr = m.RoomOccupancy("ZZZZZZ")
	require.NotNil(t, rerr)
	assert.Equal(t, room.CodeRoomNotFound, rerr.Code)
}

func TestValidRoomCode(t *testing.T) {
	assert.True(t, app.ValidRoomCode("ABCDEF"))
	assert.True(t, app.ValidRoomCode("234567"))
	assert.False(t, app.ValidRoomCode("ABCDE"))   // too short
	assert.False(t, app.ValidRoomCode("ABCDEFG")) // too long
	assert.False(t, app.ValidRoomCode("ABCDE0"))  // 0 not in alphabet
	assert.False(t, app.ValidRoomCode("abcdef"))  // lowercase
}
