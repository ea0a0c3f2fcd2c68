package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
	"github.com/ovenbird/gingerhaus/internal/store"
)

func sampleSnapshot(code domain.RoomCode) *domain.RoomSnapshot {
	return &domain.RoomSnapshot{
		Code: code,
		Users: []*domain.User{
			{ID: "u1", Name: "Ada", Color: "#e4572e"},
		},
		Pieces: []*domain.Piece{
			{ID: "p1", Type: domain.PieceGumdrop, Pos: geometry.Vec3{X: 1, Z: 1}, SpawnedBy: "u1", Version: 2},
		},
		Walls: []*domain.Wall{
			{ID: "w1", Start: geometry.Vec2{}, End: geometry.Vec2{X: 4}, Height: 3, Thickness: 0.2, CreatedBy: "u1"},
		},
		PieceCount: 1,
		MaxPieces:  200,
		SavedAt:    time.Now().UTC(),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	snap := sampleSnapshot("AAAAAA")
	require.NoError(t, fs.Save(ctx, snap))

	got, err := fs.Load(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, snap.Code, got.Code)
	require.Len(t, got.Pieces, 1)
	assert.Equal(t, snap.Pieces[0].ID, got.Pieces[0].ID)
	assert.Equal(t, snap.Pieces[0].Pos, got.Pieces[0].Pos)
	require.Len(t, got.Walls, 1)
	assert.Equal(t, snap.Walls[0].End, got.Walls[0].End)
}

func TestFileStoreLoadMissing(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Load(context.Background(), "NOPE42")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	snap := sampleSnapshot("AAAAAA")
	require.NoError(t, fs.Save(ctx, snap))
	snap.Pieces[0].Pos.X = 7
	require.NoError(t, fs.Save(ctx, snap))

	got, err := fs.Load(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Pieces[0].Pos.X)
}

func TestFileStoreLoadAllSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, sampleSnapshot("AAAAAA")))
	require.NoError(t, fs.Save(ctx, sampleSnapshot("BBBBBB")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CCCCCC.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	snaps, err := fs.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestFileStoreDelete(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, sampleSnapshot("AAAAAA")))
	require.NoError(t, fs.Delete(ctx, "AAAAAA"))
	_, err = fs.Load(ctx, "AAAAAA")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, fs.Delete(ctx, "AAAAAA"), "deleting a missing snapshot is not an error")
}

func TestFileStoreNoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Save(context.Background(), sampleSnapshot("AAAAAA")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "AAAAAA.json", entries[0].Name())
}
