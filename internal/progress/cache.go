// Package progress mirrors per-task progress into Redis so external
// surfaces can poll cheap snapshots without hitting the job store.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// Snapshot is the cached progress state of one task.
type Snapshot struct {
	TaskID    string `json:"task_id"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

// Cache stores task progress snapshots in Redis. A disabled cache is a
// safe no-op.
type Cache struct {
	redis   *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewCache creates a progress cache.
func NewCache(client *redis.Client, enabled bool) *Cache {
	return &Cache{redis: client, enabled: enabled, ttl: defaultTTL}
}

// IsEnabled reports whether the cache will store anything.
func (c *Cache) IsEnabled() bool {
	return c.enabled && c.redis != nil
}

// Set writes the latest progress snapshot for a task.
func (c *Cache) Set(ctx context.Context, taskID string, percent int, status string) error {
	if !c.IsEnabled() {
		return nil
	}

	snap := Snapshot{
		TaskID:    taskID,
		Percent:   percent,
		Status:    status,
		UpdatedAt: time.Now().Unix(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal progress snapshot: %w", err)
	}

	if err := c.redis.Set(ctx, c.key(taskID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store progress snapshot: %w", err)
	}
	return nil
}

// Get reads the progress snapshot for a task; returns nil when absent.
func (c *Cache) Get(ctx context.Context, taskID string) (*Snapshot, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("progress cache is disabled")
	}

	data, err := c.redis.Get(ctx, c.key(taskID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot for a task once it reaches terminal state.
func (c *Cache) Delete(ctx context.Context, taskID string) error {
	if !c.IsEnabled() {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(taskID)).Err(); err != nil {
		return fmt.Errorf("failed to delete progress snapshot: %w", err)
	}
	return nil
}

func (c *Cache) key(taskID string) string {
	return "analyzer:progress:" + taskID
}
