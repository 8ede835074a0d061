package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const summaryKeyPrefix = "sessionguard:summary:"

// Cache stores computed summaries keyed by user. All operations are best-effort;
// a broken cache degrades to recomputation, never to an error for the caller.
type Cache interface {
	GetSummary(ctx context.Context, userID string) (*Summary, bool)
	SetSummary(ctx context.Context, s *Summary)
	Invalidate(ctx context.Context, userID string)
}

// RedisCache implements Cache on a Redis client with a fixed TTL per entry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisCache returns a summary cache backed by the given Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCache) GetSummary(ctx context.Context, userID string) (*Summary, bool) {
	raw, err := c.client.Get(ctx, summaryKeyPrefix+userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("summary cache read failed")
		}
		return nil, false
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("summary cache entry corrupt")
		return nil, false
	}
	return &s, true
}

func (c *RedisCache) SetSummary(ctx context.Context, s *Summary) {
	raw, err := json.Marshal(s)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", s.UserID).Msg("summary cache encode failed")
		return
	}
	if err := c.client.Set(ctx, summaryKeyPrefix+s.UserID, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", s.UserID).Msg("summary cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, summaryKeyPrefix+userID).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("summary cache invalidate failed")
	}
}
