package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ovenbird/gingerhaus/internal/domain"
)

// FileStore keeps one JSON file per room under a directory. Writes go
// through a temp file and rename so a crash mid-flush never truncates a
// snapshot.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(code domain.RoomCode) string {
	return filepath.Join(s.dir, string(code)+".json")
}

func (s *FileStore) Save(_ context.Context, snap *domain.RoomSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.Code, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(snap.Code) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.Code, err)
	}
	return os.Rename(tmp, s.path(snap.Code))
}

func (s *FileStore) Load(_ context.Context, code domain.RoomCode) (*domain.RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(code))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", code, err)
	}
	var snap domain.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", code, err)
	}
	return &snap, nil
}

func (s *FileStore) LoadAll(ctx context.Context) ([]*domain.RoomSnapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var snaps []*domain.RoomSnapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		code := domain.RoomCode(strings.TrimSuffix(name, ".json"))
		snap, err := s.Load(ctx, code)
		if err != nil {
			// one corrupt file must not sink hydration of the rest
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (s *FileStore) Delete(_ context.Context, code domain.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(code))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
