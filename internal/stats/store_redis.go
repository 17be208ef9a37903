package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "stats:room:"

// RedisStore keeps occupancy in Redis so multiple server instances can be
// aggregated. Entries carry a TTL; a crashed instance's rooms age out on
// their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(roomID string) string { return redisKeyPrefix + roomID }

func (s *RedisStore) Put(ctx context.Context, info RoomInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal room info: %w", err)
	}
	if err := s.client.Set(ctx, key(info.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	if err := s.client.Del(ctx, key(roomID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]RoomInfo, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make([]RoomInfo, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // expired between scan and mget
		}
		var info RoomInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}
