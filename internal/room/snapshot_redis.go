package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotStore keeps one JSON snapshot per room under room:<code>,
// with a TTL refreshed on every save so abandoned rooms age out of the
// cache on their own.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func snapshotKey(code string) string {
	return "room:" + code
}

func (s *RedisSnapshotStore) Save(ctx context.Context, state *State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(state.RoomCode), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing snapshot to redis: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, code string) (*State, error) {
	blob, err := s.client.Get(ctx, snapshotKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot from redis: %w", err)
	}
	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &state, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, snapshotKey(code)).Err(); err != nil {
		return fmt.Errorf("deleting snapshot from redis: %w", err)
	}
	return nil
}
