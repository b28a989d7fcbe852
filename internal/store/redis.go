package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions are the connection settings of a RedisCache.
type RedisOptions struct {
	Address  string
	Username string
	Password string
	DB       int
}

// RedisCache is a Cache shared by every process pointing at the same Redis.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(opts RedisOptions) *RedisCache {
	return &RedisCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     opts.Address,
			Username: opts.Username,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
