// Package store persists room snapshots. Two backends share one interface:
// JSON files for single-node deployments and Redis with a TTL when rooms are
// sharded across processes.
package store

import (
	"context"
	"errors"

	"github.com/ovenbird/gingerhaus/internal/domain"
)

// ErrNotFound is returned by Load when no snapshot exists for the room.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore is the durable side of room persistence. Implementations
// must be safe for concurrent use; the flush loop and shutdown path can
// overlap.
type SnapshotStore interface {
	Save(ctx context.Context, snap *domain.RoomSnapshot) error
	Load(ctx context.Context, code domain.RoomCode) (*domain.RoomSnapshot, error)
	LoadAll(ctx context.Context) ([]*domain.RoomSnapshot, error)
	Delete(ctx context.Context, code domain.RoomCode) error
}
