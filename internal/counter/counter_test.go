package counter

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	c "github.com/life-stream-dev/apm-demo/internal/config"
	"github.com/life-stream-dev/apm-demo/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseCounter checks the behaviour every backend must share.
func exerciseCounter(t *testing.T, counter Counter) {
	t.Helper()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := counter.Increment(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := counter.Increment(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	_, err = counter.Increment(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyName)

	snapshot, err := counter.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"alice": 3, "bob": 1}, snapshot)

	summary := Summarize(snapshot)
	assert.Equal(t, int64(4), summary.TotalVisits)
	assert.Equal(t, 2, summary.UniqueVisitors)

	assert.NoError(t, counter.Close(ctx))
}

func TestMemoryCounter(t *testing.T) {
	exerciseCounter(t, NewMemoryCounter())
}

func TestMemoryCounterConcurrentIncrements(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()

	const workers, perWorker = 16, 250
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, _ = counter.Increment(ctx, "shared")
				_, _ = counter.Increment(ctx, fmt.Sprintf("worker-%d", i))
			}
		}(i)
	}
	wg.Wait()

	snapshot, err := counter.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), snapshot["shared"])
	for i := 0; i < workers; i++ {
		assert.Equal(t, int64(perWorker), snapshot[fmt.Sprintf("worker-%d", i)])
	}

	summary := Summarize(snapshot)
	assert.Equal(t, int64(2*workers*perWorker), summary.TotalVisits)
	assert.Equal(t, workers+1, summary.UniqueVisitors)
}

func TestMemoryCounterSnapshotIsCopy(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()
	_, _ = counter.Increment(ctx, "alice")

	snapshot, _ := counter.Snapshot(ctx)
	snapshot["alice"] = 100

	again, _ := counter.Snapshot(ctx)
	assert.Equal(t, int64(1), again["alice"])
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, int64(0), summary.TotalVisits)
	assert.Equal(t, 0, summary.UniqueVisitors)
	assert.NotNil(t, summary.Visitors)
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello, Ada! 👋", Greeting("Ada"))
}

func TestRedisCounter(t *testing.T) {
	url := os.Getenv("APM_TEST_REDIS_URL")
	if url == "" {
		t.Skip("APM_TEST_REDIS_URL not set")
	}
	db, err := database.ConnectRedis(context.Background(), c.RedisConfig{
		URL:       url,
		KeyPrefix: "apm-test-" + uuid.NewString() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Client.Del(context.Background(), db.Key("visits")).Err()
		_ = db.Invoke(context.Background())
	})

	exerciseCounter(t, NewRedisCounter(db))
}

func TestMongoCounter(t *testing.T) {
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

	counter, err := NewMongoCounter(ctx, db)
	require.NoError(t, err)
	exerciseCounter(t, counter)
}
