package database

import (
	"context"
	"fmt"
	"time"

	c "github.com/life-stream-dev/apm-demo/internal/config"
	"github.com/life-stream-dev/apm-demo/internal/logger"
	"github.com/life-stream-dev/apm-demo/internal/utils"
	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 3 * time.Second

// Redis owns a connected client and the key prefix every store shares.
type Redis struct {
	Client           *redis.Client
	KeyPrefix        string
	OperationTimeout time.Duration
}

// ConnectRedis parses the configured URL and pings the server.
func ConnectRedis(ctx context.Context, config c.RedisConfig) (*Redis, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.InfoF("Connected to redis %s", opts.Addr)
	return &Redis{
		Client:           client,
		KeyPrefix:        config.KeyPrefix,
		OperationTimeout: utils.ParseStringTimeOr(config.OperationTimeout, defaultRedisTimeout),
	}, nil
}

// Key prefixes parts with the configured namespace, e.g. Key("session", id).
func (r *Redis) Key(parts ...string) string {
	key := r.KeyPrefix
	for i, part := range parts {
		if i > 0 {
			key += ":"
		}
		key += part
	}
	return key
}

func (r *Redis) Invoke(_ context.Context) error {
	logger.InfoF("Closing redis connection")
	return r.Client.Close()
}
