package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"statecraft/internal/directory/models"
	"statecraft/pkg/database"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps recently read states in Redis
type RedisCache struct {
	redis *database.Redis
	ttl   time.Duration
}

// NewRedisCache creates a state cache with the given entry lifetime
func NewRedisCache(redis *database.Redis, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: redis, ttl: ttl}
}

func stateCacheKey(stateID string) string {
	return fmt.Sprintf("statecraft:state:%s", stateID)
}

// GetState returns the cached state and whether it was present
func (c *RedisCache) GetState(ctx context.Context, stateID string) (*models.State, bool, error) {
	var state models.State
	if err := c.redis.GetJSON(ctx, stateCacheKey(stateID), &state); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, err
	}
	return &state, true, nil
}

// SetState caches state
func (c *RedisCache) SetState(ctx context.Context, state *models.State) error {
	return c.redis.SetJSON(ctx, stateCacheKey(state.UUID), state, c.ttl)
}

// Invalidate drops a cached state
func (c *RedisCache) Invalidate(ctx context.Context, stateID string) error {
	return c.redis.Delete(ctx, stateCacheKey(stateID))
}
