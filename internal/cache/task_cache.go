package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/amireldb/task-management-api/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tasks:"

// TaskCache caches task query results in Redis. Every entry is scoped to one
// user; a write by that user invalidates all of their entries at once.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func key(userID int64, view string) string {
	return keyPrefix + strconv.FormatInt(userID, 10) + ":" + view
}

// Get returns the cached result for the user's view, or nil on miss.
func (c *TaskCache) Get(ctx context.Context, userID int64, view string) ([]domain.Task, error) {
	b, err := c.rdb.Get(ctx, key(userID, view)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []domain.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Set stores the result for the user's view.
func (c *TaskCache) Set(ctx context.Context, userID int64, view string, list []domain.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(userID, view), b, c.ttl).Err()
}

// Invalidate removes every cached view for the user.
func (c *TaskCache) Invalidate(ctx context.Context, userID int64) error {
	pattern := keyPrefix + strconv.FormatInt(userID, 10) + ":*"
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
