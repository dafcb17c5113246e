package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/tessro/cadence/internal/core"
)

const redisKeyPrefix = "cadence:lyrics:"

// RedisCache is a lyric cache shared through Redis.
type RedisCache struct {
	client *redisClient.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at rawURL (redis:// or rediss://).
func NewRedisCache(rawURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redisClient.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisCache{client: redisClient.NewClient(opt), ttl: ttl}, nil
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetLyrics returns cached lines for key. Redis expires entries itself.
func (r *RedisCache) GetLyrics(ctx context.Context, key string) ([]core.LyricLine, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err == redisClient.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var lines []core.LyricLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, false, err
	}
	return lines, true, nil
}

// PutLyrics stores lines under key with the configured TTL.
func (r *RedisCache) PutLyrics(ctx context.Context, key string, lines []core.LyricLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err()
}

// Close closes the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
