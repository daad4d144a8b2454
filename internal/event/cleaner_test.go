package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanerRunsInReverseOrderAndLoggerLast(t *testing.T) {
	var order []string
	record := func(name string) Callable {
		return CallableFunc(func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	cleaner := NewCleaner(record("logger"))
	cleaner.Add(record("database"))
	cleaner.Add(record("store"))
	cleaner.Add(record("http"))

	require.NoError(t, cleaner.Clean())
	assert.Equal(t, []string{"http", "store", "database", "logger"}, order)

	// second call is a no-op
	require.NoError(t, cleaner.Clean())
	assert.Len(t, order, 4)
}

func TestCleanerCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	cleaner := NewCleaner(nil)
	cleaner.Add(CallableFunc(func(ctx context.Context) error { return boom }))
	cleaner.Add(CallableFunc(func(ctx context.Context) error { return nil }))

	err := cleaner.Clean()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCleanerIgnoresAddAfterClean(t *testing.T) {
	called := false
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.Clean())

	cleaner.Add(CallableFunc(func(ctx context.Context) error {
		called = true
		return nil
	}))
	require.NoError(t, cleaner.Clean())
	assert.False(t, called)
}

func TestCleanerTimeoutReachesCallback(t *testing.T) {
	cleaner := NewCleaner(nil)
	cleaner.SetTimeout(20 * time.Millisecond)
	cleaner.Add(CallableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	err := cleaner.Clean()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCleanerWait(t *testing.T) {
	ran := make(chan struct{})
	cleaner := NewCleaner(nil)
	cleaner.Add(CallableFunc(func(ctx context.Context) error {
		close(ran)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, cleaner.Wait(ctx))

	select {
	case <-ran:
	default:
		t.Fatal("expected cleaner to run after context cancellation")
	}
}

func TestShutdownReason(t *testing.T) {
	signalled, stop := context.WithCancel(context.Background())
	stop()
	assert.Equal(t, "Received shutdown signal, shutting down", shutdownReason(signalled))

	failed, cancel := context.WithCancelCause(context.Background())
	cancel(errors.New("listen tcp :8080: bind: address already in use"))
	assert.Equal(t, "Shutting down: listen tcp :8080: bind: address already in use", shutdownReason(failed))

	c := NewCleaner(nil)
	require.NoError(t, c.Wait(failed))
}
