package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reservo/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisMonthCache keys months under a per-provider version. Bumping the version orphans every
// cached month at once; the orphans age out with the TTL.
type RedisMonthCache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func NewRedisMonthCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisMonthCache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &RedisMonthCache{Client: client, TTL: ttl, Logger: logger}
}

func versionKey(providerID string) string {
	return "calendar:v:" + providerID
}

// Key returns "" when the version cannot be read, which disables caching for the call.
func (c *RedisMonthCache) Key(ctx context.Context, providerID string, year, month int) string {
	ver, err := c.Client.Get(ctx, versionKey(providerID)).Int64()
	if err != nil && err != redis.Nil {
		c.Logger.Warn("Calendar cache version read failed", zap.Error(err))
		return ""
	}
	return fmt.Sprintf("calendar:%s:%d:%04d-%02d", providerID, ver, year, month)
}

func (c *RedisMonthCache) Get(ctx context.Context, key string) (*models.CalendarMonth, bool) {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.Logger.Warn("Calendar cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var m models.CalendarMonth
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return &m, true
}

func (c *RedisMonthCache) Set(ctx context.Context, key string, m *models.CalendarMonth) {
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, key, raw, c.TTL).Err(); err != nil {
		c.Logger.Warn("Calendar cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisMonthCache) Invalidate(ctx context.Context, providerID string) {
	if err := c.Client.Incr(ctx, versionKey(providerID)).Err(); err != nil {
		c.Logger.Warn("Calendar cache invalidation failed", zap.String("providerId", providerID), zap.Error(err))
	}
}
