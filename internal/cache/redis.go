package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps entries in redis under "yourls:<server>:<key>".
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisBackend creates a RedisBackend for baseURL using client.
func NewRedisBackend(client *redis.Client, baseURL string, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		client: client,
		prefix: "yourls:" + serverHash(baseURL) + ":",
		ttl:    ttl,
	}
}

// OpenRedis parses a redis:// URL and checks the server answers.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string, dst any) bool {
	if Disabled() {
		return false
	}
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("redis cache get failed", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (b *RedisBackend) Put(ctx context.Context, key string, v any) {
	if Disabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := b.client.Set(ctx, b.prefix+key, data, b.ttl).Err(); err != nil {
		slog.Debug("redis cache put failed", "key", key, "error", err)
	}
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.prefix+key).Err()
}

// Clear deletes every key of this backend's server.
func (b *RedisBackend) Clear(ctx context.Context) error {
	iter := b.client.Scan(ctx, 0, b.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return b.client.Del(ctx, keys...).Err()
}
