// Package server exposes the demo endpoints over HTTP with echo.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/life-stream-dev/apm-demo/internal/counter"
	"github.com/life-stream-dev/apm-demo/internal/logger"
	"github.com/life-stream-dev/apm-demo/internal/random"
	"github.com/life-stream-dev/apm-demo/internal/session"
)

const Version = "2.0"

type Options struct {
	Addr      string
	Counter   counter.Counter
	Sessions  *session.Manager
	Random    *random.Generator
	StartedAt time.Time
	// Stores names the configured backends, reported by the health endpoint.
	Stores map[string]string
}

type Server struct {
	echo     *echo.Echo
	addr     string
	handlers *handlers
}

func NewServer(opts Options) *Server {
	if opts.Random == nil {
		opts.Random = random.NewGenerator()
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = NewSonicSerializer()
	e.HTTPErrorHandler = errorHandler
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Use(requestIDMiddleware(), accessLog(), recoverMiddleware())

	h := &handlers{
		counter:   opts.Counter,
		sessions:  opts.Sessions,
		random:    opts.Random,
		startedAt: opts.StartedAt,
		stores:    opts.Stores,
	}
	h.register(e)

	return &Server{echo: e, addr: opts.Addr, handlers: h}
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	logger.InfoF("HTTP server listening on %s", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Invoke drains in-flight requests; registered with the shutdown cleaner.
func (s *Server) Invoke(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
