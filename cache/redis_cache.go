package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisCacheConfig struct {
	Addr           string        `yaml:"addr" env:"CACHE_REDIS_ADDR"`
	DB             int           `yaml:"db" env:"CACHE_REDIS_DB" env-default:"0"`
	Prefix         string        `yaml:"prefix" env:"CACHE_REDIS_PREFIX" env-default:"fxboard:"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CACHE_REDIS_CONNECT_TIMEOUT" env-default:"5s"`
}

// RedisCache shares derived tables between replicas. All keys live under Prefix,
// and Clear only removes those.
type RedisCache struct {
	lg     *zap.Logger
	client *redis.Client
	prefix string
}

func NewRedisCache(lg *zap.Logger, cfg *RedisCacheConfig) (*RedisCache, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis for cache at %s: %w", cfg.Addr, err)
	}
	lg.Info("connected to redis for cache", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))

	return &RedisCache{
			lg:     lg,
			client: client,
			prefix: cfg.Prefix,
		}, func() {
			_ = client.Close()
			lg.Info("closed redis connection for cache", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
		}, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, expiry time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, max(expiry, 0)).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", err
	}
	return data, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	return nil
}
