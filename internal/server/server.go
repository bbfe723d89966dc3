// Package server provides HTTP server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Task is periodic background work run alongside the HTTP server.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Server wraps http.Server with graceful shutdown and background tasks.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	log             logrus.FieldLogger
	tasks           []Task
}

// New creates a new Server instance listening on addr.
func New(handler http.Handler, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration, log logrus.FieldLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		shutdownTimeout: shutdownTimeout,
		log:             log.WithField("component", "server"),
	}
}

// Every registers fn to run every interval until the server stops.
func (s *Server) Every(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.tasks = append(s.tasks, Task{Name: name, Interval: interval, Run: fn})
}

// Run listens and serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", ln.Addr().String()).Info("server starting")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	for _, t := range s.tasks {
		g.Go(func() error {
			s.loop(gctx, t)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.httpServer.SetKeepAlivesEnabled(false)
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}

func (s *Server) loop(ctx context.Context, t Task) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.WithError(err).WithField("task", t.Name).Warn("background task failed")
			}
		}
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
