package event

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/life-stream-dev/apm-demo/internal/logger"
)

const defaultCleanTimeout = 10 * time.Second

type Callable interface {
	Invoke(ctx context.Context) error
}

// CallableFunc adapts a plain function to Callable.
type CallableFunc func(ctx context.Context) error

func (f CallableFunc) Invoke(ctx context.Context) error {
	return f(ctx)
}

type Cleaner struct {
	cleaners       []Callable
	mu             sync.Mutex
	cleanOnce      sync.Once
	cleaning       bool
	timeout        time.Duration
	loggerShutdown Callable
	err            error
}

// NewCleaner creates a Cleaner whose loggerShutdown runs after every other callback.
func NewCleaner(loggerShutdown Callable) *Cleaner {
	return &Cleaner{
		timeout:        defaultCleanTimeout,
		loggerShutdown: loggerShutdown,
	}
}

// SetTimeout bounds each registered callback.
func (c *Cleaner) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		c.timeout = timeout
	}
}

func (c *Cleaner) Add(callable Callable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cleaning {
		logger.Debug("Cleaner is already shutting down, ignoring new cleaner")
		return
	}
	c.cleaners = append(c.cleaners, callable)
}

// Wait blocks until ctx is done and then runs Clean. A context cancelled with
// a cause (context.WithCancelCause) logs that cause instead of a signal.
func (c *Cleaner) Wait(ctx context.Context) error {
	<-ctx.Done()
	logger.Info(shutdownReason(ctx))
	return c.Clean()
}

func shutdownReason(ctx context.Context) string {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, context.Canceled) {
		return "Received shutdown signal, shutting down"
	}
	return fmt.Sprintf("Shutting down: %v", cause)
}

// Clean invokes the registered callbacks in reverse registration order, once.
func (c *Cleaner) Clean() error {
	c.cleanOnce.Do(func() {
		c.mu.Lock()
		c.cleaning = true
		cleanersCopy := make([]Callable, len(c.cleaners))
		copy(cleanersCopy, c.cleaners)
		timeout := c.timeout
		c.mu.Unlock()

		logger.DebugF("Starting cleanup of %d registered functions", len(cleanersCopy))

		var errs []error
		for i := len(cleanersCopy) - 1; i >= 0; i-- {
			if err := invoke(i+1, cleanersCopy[i], timeout); err != nil {
				errs = append(errs, err)
			}
		}

		if len(errs) > 0 {
			logger.ErrorF("%d errors occurred during cleanup", len(errs))
		} else {
			logger.Debug("All cleaners executed successfully")
		}
		logger.Info("Cleanup finished, server offline")

		if c.loggerShutdown != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := c.loggerShutdown.Invoke(shutdownCtx); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "LOGGER SHUTDOWN ERROR: %v\n", err)
				errs = append(errs, err)
			}
		}
		c.err = errors.Join(errs...)
	})
	return c.err
}

func invoke(idx int, callable Callable, timeout time.Duration) error {
	logger.DebugF("Invoking cleaner #%d (%T)", idx, callable)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := callable.Invoke(ctx); err != nil {
		logger.ErrorF("Cleaner #%d (%T) failed: %v", idx, callable, err)
		return fmt.Errorf("cleaner #%d: %w", idx, err)
	}
	return nil
}
