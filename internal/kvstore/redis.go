// ABOUTME: Redis backed key-value store for sessions shared between machines
// ABOUTME: Keys are namespaced so the store can share a Redis database

package kvstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "maarif:"

type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects and pings so an unreachable server fails at open
// rather than on the first read.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, unavailable("connect", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, redisPrefix+key, value, 0).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = redisPrefix + k
	}
	if err := r.rdb.Del(ctx, prefixed...).Err(); err != nil {
		return unavailable("remove", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
