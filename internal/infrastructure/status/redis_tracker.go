package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "sync:status:"

// RedisTracker stores run status snapshots in Redis so multiple instances
// see each other's runs. Finished runs expire after the configured TTL.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTracker creates a Redis-backed tracker
func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisTracker{client: client, ttl: ttl}
}

// Set stores the latest snapshot for the supplier
func (t *RedisTracker) Set(ctx context.Context, status RunStatus) error {
	status.UpdatedAt = time.Now()
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode run status: %w", err)
	}
	key := statusKeyPrefix + status.SupplierCode
	if err := t.client.Set(ctx, key, data, t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store run status: %w", err)
	}
	return nil
}

// List returns all stored snapshots
func (t *RedisTracker) List(ctx context.Context) ([]RunStatus, error) {
	var statuses []RunStatus
	iter := t.client.Scan(ctx, 0, statusKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := t.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to read run status: %w", err)
		}
		var s RunStatus
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		statuses = append(statuses, s)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan run statuses: %w", err)
	}
	// SCAN order is arbitrary; keep the listing stable across backends
	sortBySupplier(statuses)
	return statuses, nil
}
