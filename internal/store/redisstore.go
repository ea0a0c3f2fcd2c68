package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ovenbird/gingerhaus/internal/domain"
)

// RedisStore persists snapshots as JSON values with a TTL, so abandoned
// rooms age out of the keyspace without a reaper.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "ginger:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) snapshotKey(code domain.RoomCode) string {
	return fmt.Sprintf("%sroom:%s:snapshot", s.keyPrefix, code)
}

func (s *RedisStore) Save(ctx context.Context, snap *domain.RoomSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.Code, err)
	}
	if err := s.client.Set(ctx, s.snapshotKey(snap.Code), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save snapshot %s: %w", snap.Code, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, code domain.RoomCode) (*domain.RoomSnapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load snapshot %s: %w", code, err)
	}
	var snap domain.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", code, err)
	}
	return &snap, nil
}

func (s *RedisStore) LoadAll(ctx context.Context) ([]*domain.RoomSnapshot, error) {
	pattern := s.keyPrefix + "room:*:snapshot"
	var snaps []*domain.RoomSnapshot

	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var snap domain.RoomSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		snaps = append(snaps, &snap)
	}
	if err := iter.Err(); err != nil {
		return snaps, fmt.Errorf("redis: scan snapshots: %w", err)
	}
	return snaps, nil
}

func (s *RedisStore) Delete(ctx context.Context, code domain.RoomCode) error {
	return s.client.Del(ctx, s.snapshotKey(code)).Err()
}
