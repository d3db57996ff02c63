package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisKV stores each key as a plain redis string under Prefix.
type RedisKV struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisKV(rdb redis.UniversalClient, prefix string) *RedisKV {
	return &RedisKV{rdb: rdb, prefix: prefix}
}

func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisKV, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedisKV(rdb, cfg.Prefix), nil
}

func (r *RedisKV) Close() error {
	return r.rdb.Close()
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	n, err := r.rdb.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
