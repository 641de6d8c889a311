package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// RedisStore is a Store backed by Redis. Keys are namespaced with a prefix
// so the dashboard can share a Redis instance with other services.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store. An empty prefix stores keys as-is.
func NewRedisStore(redisClient *redis.Client, prefix string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observe(backendRedis, "get", ErrNotFound)
			return "", ErrNotFound
		}
		observe(backendRedis, "get", err)
		return "", fmt.Errorf("redis get: %w", err)
	}
	observe(backendRedis, "get", nil)
	return value, nil
}

// Set stores value under key without expiry; staleness is decided by readers.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		observe(backendRedis, "set", err)
		return fmt.Errorf("redis set: %w", err)
	}
	observe(backendRedis, "set", nil)
	return nil
}

// SetMany writes every pair inside MULTI/EXEC.
func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		observe(backendRedis, "set_many", err)
		return fmt.Errorf("redis multi set: %w", err)
	}
	observe(backendRedis, "set_many", nil)
	return nil
}

// Remove deletes key.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		observe(backendRedis, "remove", err)
		return fmt.Errorf("redis del: %w", err)
	}
	observe(backendRedis, "remove", nil)
	return nil
}
