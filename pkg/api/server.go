package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/eventlog"
)

// Runner runs fn on the interpreter's goroutine and waits for it.
// sched.Loop implements it.
type Runner interface {
	Do(fn func()) bool
}

// Config configures the API server.
type Config struct {
	Addr string
	Auth *AuthConfig // nil = no authentication
	CLI  *cli.CLI
	Loop Runner
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	cli        *cli.CLI
	loop       Runner
	log        *eventlog.Log
	startTime  time.Time
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		cli:       cfg.CLI,
		loop:      cfg.Loop,
		log:       cfg.CLI.Log(),
		startTime: time.Now(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(s))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("GET /api/v1/interfaces", s.interfacesHandler)
	mux.HandleFunc("GET /api/v1/routes", s.routesHandler)
	mux.HandleFunc("GET /api/v1/bgp/neighbors", s.neighborsHandler)
	mux.HandleFunc("GET /api/v1/logging", s.loggingHandler)
	mux.HandleFunc("GET /api/v1/logging/stream", s.logStreamHandler)

	var handler http.Handler = mux
	if cfg.Auth != nil {
		handler = authMiddleware(*cfg.Auth, mux)
	}
	s.handler = handler
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, including authentication.
func (s *Server) Handler() http.Handler { return s.handler }

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// onLoop runs fn on the interpreter goroutine. It reports false when the
// loop has shut down.
func (s *Server) onLoop(fn func()) bool {
	return s.loop.Do(fn)
}
