package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/life-stream-dev/apm-demo/internal/config"
	"github.com/life-stream-dev/apm-demo/internal/counter"
	"github.com/life-stream-dev/apm-demo/internal/database"
	"github.com/life-stream-dev/apm-demo/internal/event"
	"github.com/life-stream-dev/apm-demo/internal/logger"
	"github.com/life-stream-dev/apm-demo/internal/random"
	"github.com/life-stream-dev/apm-demo/internal/server"
	"github.com/life-stream-dev/apm-demo/internal/session"
	"github.com/life-stream-dev/apm-demo/internal/utils"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides app_port)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	startedAt := time.Now()

	cfg, err := config.ReadConfigFrom(configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigCreated) {
			logger.WarnF("%v (%s)", err, configPath)
			return nil
		}
		return fmt.Errorf("error occured while reading config: %w", err)
	}
	if servePort != 0 {
		cfg.AppPort = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
		config.SetConfig(cfg)
	}

	cleaner := event.NewCleaner(logger.Init())
	logger.Debug("Application initializing...")

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(sigCtx)
	defer cancel(nil)

	visits, sessions, err := buildStores(ctx, cfg, cleaner)
	if err != nil {
		logger.ErrorF("Error occured while initializing stores, details: %v", err)
		_ = cleaner.Clean()
		return err
	}

	srv := server.NewServer(server.Options{
		Addr:      fmt.Sprintf(":%d", cfg.AppPort),
		Counter:   visits,
		Sessions:  session.NewManager(sessions, cfg.Session.CookieName),
		Random:    random.NewGenerator(),
		StartedAt: startedAt,
		Stores: map[string]string{
			"counter": cfg.Counter.Store,
			"session": cfg.Session.Store,
		},
	})
	cleaner.Add(srv)

	go func() {
		if err := srv.Start(); err != nil {
			cancel(err)
		}
	}()

	if err := cleaner.Wait(ctx); err != nil {
		logger.WarnF("Shutdown finished with errors: %v", err)
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// buildStores connects the configured backends and registers their close
// callbacks. Connections are registered before the stores that use them so
// the stores are closed first.
func buildStores(ctx context.Context, cfg config.Config, cleaner *event.Cleaner) (counter.Counter, session.Store, error) {
	var (
		mongo *database.Mongo
		rdb   *database.Redis
		err   error
	)

	if cfg.UsesStore(config.StoreMongo) {
		if mongo, err = database.ConnectMongo(ctx, cfg.Database, cfg.AppName); err != nil {
			return nil, nil, err
		}
		cleaner.Add(mongo)
	}
	if cfg.UsesStore(config.StoreRedis) {
		if rdb, err = database.ConnectRedis(ctx, cfg.Redis); err != nil {
			return nil, nil, err
		}
		cleaner.Add(rdb)
	}

	var visits counter.Counter
	switch cfg.Counter.Store {
	case config.StoreRedis:
		visits = counter.NewRedisCounter(rdb)
	case config.StoreMongo:
		if visits, err = counter.NewMongoCounter(ctx, mongo); err != nil {
			return nil, nil, err
		}
	default:
		visits = counter.NewMemoryCounter()
	}
	cleaner.Add(event.CallableFunc(visits.Close))

	ttl := utils.ParseStringTimeOr(cfg.Session.MaxInactiveInterval, session.DefaultMaxInactiveInterval)
	var sessions session.Store
	switch cfg.Session.Store {
	case config.StoreRedis:
		sessions = session.NewRedisStore(rdb, ttl)
	case config.StoreMongo:
		if sessions, err = session.NewMongoStore(ctx, mongo, ttl); err != nil {
			return nil, nil, err
		}
	default:
		sessions = session.NewMemoryStore(ttl, cfg.Session.MaxSessions)
	}
	cleaner.Add(event.CallableFunc(sessions.Close))

	logger.InfoF("Visit counter backed by %s, sessions backed by %s (max inactive %s)",
		cfg.Counter.Store, cfg.Session.Store, ttl)
	return visits, sessions, nil
}
