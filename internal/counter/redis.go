package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/life-stream-dev/apm-demo/internal/database"
	"github.com/life-stream-dev/apm-demo/internal/logger"
)

// RedisCounter keeps every visitor as a field of one hash, incremented with HINCRBY.
type RedisCounter struct {
	db  *database.Redis
	key string
}

func NewRedisCounter(db *database.Redis) *RedisCounter {
	return &RedisCounter{db: db, key: db.Key("visits")}
}

func (r *RedisCounter) Increment(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	ctx, cancel := context.WithTimeout(ctx, r.db.OperationTimeout)
	defer cancel()

	count, err := r.db.Client.HIncrBy(ctx, r.key, name, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment visit count: %w", err)
	}
	return count, nil
}

func (r *RedisCounter) Snapshot(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.db.OperationTimeout)
	defer cancel()

	values, err := r.db.Client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read visit counts: %w", err)
	}

	visits := make(map[string]int64, len(values))
	for name, raw := range values {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.WarnF("Skipping malformed visit count for %s: %v", name, err)
			continue
		}
		visits[name] = count
	}
	return visits, nil
}

func (r *RedisCounter) Close(_ context.Context) error {
	return nil
}
