package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/life-stream-dev/apm-demo/internal/database"
	"github.com/redis/go-redis/v9"
)

const (
	fieldCreatedAt      = "_created_at"
	fieldLastAccessedAt = "_last_accessed_at"
	attributePrefix     = "attr:"
)

// KEYS[1] session hash, ARGV[1] ttl in ms, ARGV[2..] field/value pairs.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return 1
`)

// KEYS[1] session hash, ARGV[1] attribute field.
var removeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {0}
end
local previous = redis.call('HGET', KEYS[1], ARGV[1])
if not previous then
	return {1}
end
redis.call('HDEL', KEYS[1], ARGV[1])
return {1, previous}
`)

// RedisStore keeps each session as one hash whose TTL is the inactivity interval.
type RedisStore struct {
	db  *database.Redis
	ttl time.Duration
}

func NewRedisStore(db *database.Redis, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultMaxInactiveInterval
	}
	return &RedisStore{db: db, ttl: ttl}
}

func (r *RedisStore) key(id string) string {
	return r.db.Key("session", id)
}

func (r *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.db.OperationTimeout)
}

func (r *RedisStore) Create(ctx context.Context) (*Session, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	s := newSession(r.ttl)
	key := r.key(s.ID)
	_, err := r.db.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldCreatedAt, s.CreatedAt.UnixNano(),
			fieldLastAccessedAt, s.LastAccessedAt.UnixNano(),
		)
		pipe.PExpire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) touch(ctx context.Context, id string, fieldValues ...interface{}) error {
	now := time.Now()
	args := []interface{}{r.ttl.Milliseconds(), fieldLastAccessedAt, now.UnixNano()}
	args = append(args, fieldValues...)
	ok, err := touchScript.Run(ctx, r.db.Client, []string{r.key(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if ok == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionIDEmpty
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	values, err := r.db.Client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrSessionNotFound
	}
	if err := r.touch(ctx, id); err != nil {
		return nil, err
	}

	s := &Session{
		ID:                  id,
		LastAccessedAt:      time.Now(),
		MaxInactiveInterval: r.ttl,
		Attributes:          make(map[string]string),
	}
	for field, value := range values {
		switch {
		case field == fieldCreatedAt:
			s.CreatedAt = parseUnixNano(value)
		case strings.HasPrefix(field, attributePrefix):
			s.Attributes[strings.TrimPrefix(field, attributePrefix)] = value
		}
	}
	return s, nil
}

func (r *RedisStore) SetAttribute(ctx context.Context, id, key, value string) error {
	if err := validateIDAndKey(id, key); err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.touch(ctx, id, attributePrefix+key, value)
}

func (r *RedisStore) GetAttribute(ctx context.Context, id, key string) (string, bool, error) {
	if err := validateIDAndKey(id, key); err != nil {
		return "", false, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.touch(ctx, id); err != nil {
		return "", false, err
	}
	value, err := r.db.Client.HGet(ctx, r.key(id), attributePrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get session attribute: %w", err)
	}
	return value, true, nil
}

func (r *RedisStore) RemoveAttribute(ctx context.Context, id, key string) (string, bool, error) {
	if err := validateIDAndKey(id, key); err != nil {
		return "", false, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.touch(ctx, id); err != nil {
		return "", false, err
	}
	result, err := removeScript.Run(ctx, r.db.Client, []string{r.key(id)}, attributePrefix+key).Slice()
	if err != nil {
		return "", false, fmt.Errorf("failed to remove session attribute: %w", err)
	}
	if len(result) == 0 || result[0] == int64(0) {
		return "", false, ErrSessionNotFound
	}
	if len(result) < 2 {
		return "", false, nil
	}
	previous, _ := result[1].(string)
	return previous, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrSessionIDEmpty
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.Client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) Close(_ context.Context) error {
	return nil
}

func parseUnixNano(value string) time.Time {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n)
}
