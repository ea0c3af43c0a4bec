package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"youth-sports-gamification/logger"
	"youth-sports-gamification/models"

	"github.com/redis/go-redis/v9"
)

// RedisCooldownCache shares "last awarded" times across instances. Entries
// expire on their own, so there is nothing to prune.
type RedisCooldownCache struct {
	client *redis.Client
}

func NewRedisCooldownCache(client *redis.Client) *RedisCooldownCache {
	return &RedisCooldownCache{client: client}
}

func cooldownKey(userID string, action models.ActionType) string {
	return fmt.Sprintf("cooldown:%s:%s", userID, action)
}

func (c *RedisCooldownCache) LastAwarded(ctx context.Context, userID string, action models.ActionType) (time.Time, bool) {
	val, err := c.client.Get(ctx, cooldownKey(userID, action)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Str("user_id", userID).Msg("cooldown cache read failed")
		}
		return time.Time{}, false
	}
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

func (c *RedisCooldownCache) MarkAwarded(ctx context.Context, userID string, action models.ActionType, at time.Time, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, cooldownKey(userID, action), strconv.FormatInt(at.UnixNano(), 10), ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("cooldown cache write failed")
	}
}
