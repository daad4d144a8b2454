package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	c "github.com/life-stream-dev/apm-demo/internal/config"
	"github.com/life-stream-dev/apm-demo/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	first, err := store.Create(ctx)
	require.NoError(t, err)
	second, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, first.Attributes)

	require.NoError(t, store.SetAttribute(ctx, first.ID, "theme", "dark"))
	require.NoError(t, store.SetAttribute(ctx, first.ID, "user.name", "ada$"))
	require.NoError(t, store.SetAttribute(ctx, first.ID, "theme", "light"))

	value, found, err := store.GetAttribute(ctx, first.ID, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "light", value)

	// no leakage across sessions
	_, found, err = store.GetAttribute(ctx, second.ID, "theme")
	require.NoError(t, err)
	assert.False(t, found)

	s, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "light", "user.name": "ada$"}, s.Attributes)
	assert.False(t, s.CreatedAt.IsZero())
	assert.False(t, s.LastAccessedAt.Before(s.CreatedAt))

	previous, found, err := store.RemoveAttribute(ctx, first.ID, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "light", previous)

	_, found, err = store.RemoveAttribute(ctx, first.ID, "theme")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Delete(ctx, first.ID))
	_, err = store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.SetAttribute(ctx, first.ID, "k", "v"), ErrSessionNotFound)
	_, _, err = store.GetAttribute(ctx, first.ID, "k")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = store.RemoveAttribute(ctx, first.ID, "k")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrSessionIDEmpty)
	assert.ErrorIs(t, store.SetAttribute(ctx, second.ID, "", "v"), ErrAttributeKeyEmpty)

	assert.NoError(t, store.Close(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute, 0))
}

func TestMemoryStoreExpiresInactiveSessions(t *testing.T) {
	store := NewMemoryStore(200*time.Millisecond, 0)
	ctx := context.Background()

	s, err := store.Create(ctx)
	require.NoError(t, err)

	// keep it alive past one full interval by touching it
	for i := 0; i < 4; i++ {
		time.Sleep(60 * time.Millisecond)
		_, err = store.Get(ctx, s.ID)
		require.NoError(t, err)
	}

	time.Sleep(450 * time.Millisecond)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreCapacity(t *testing.T) {
	store := NewMemoryStore(time.Minute, 2)
	ctx := context.Background()

	oldest, _ := store.Create(ctx)
	_, _ = store.Create(ctx)
	_, _ = store.Create(ctx)

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, oldest.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreReturnsSnapshots(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	ctx := context.Background()

	s, _ := store.Create(ctx)
	s.Attributes["leak"] = "yes"

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Attributes)
}

func TestKeyEncoding(t *testing.T) {
	for _, key := range []string{"plain", "a.b.c", "$where", "100%", "%2E", "mixed.$%"} {
		encoded := encodeKey(key)
		assert.NotContains(t, encoded, ".")
		assert.NotContains(t, encoded, "$")
		assert.Equal(t, key, decodeKey(encoded))
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("APM_TEST_REDIS_URL")
	if url == "" {
		t.Skip("APM_TEST_REDIS_URL not set")
	}
	db, err := database.ConnectRedis(context.Background(), c.RedisConfig{
		URL:       url,
		KeyPrefix: "apm-test-" + uuid.NewString() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Invoke(context.Background()) })

	exerciseStore(t, NewRedisStore(db, time.Minute))
}

func TestMongoStore(t *testing.T) {
	host := os.Getenv("APM_TEST_MONGO_HOST")
	if host == "" {
		t.Skip("APM_TEST_MONGO_HOST not set")
	}
	ctx := context.Background()
	db, err := database.ConnectMongo(ctx, c.DatabaseConfig{
		Host:     host,
		Port:     27017,
		Database: "apm_test_" + uuid.NewString()[:8],
	}, "apm-demo-test")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Database.Drop(ctx)
		_ = db.Invoke(ctx)
	})

	store, err := NewMongoStore(ctx, db, time.Minute)
	require.NoError(t, err)
	exerciseStore(t, store)
}
