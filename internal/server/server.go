// Package server exposes the validator and the syntax linter over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/health"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/history"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/metrics"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/validation"
)

// Route paths.
const (
	PathValidate = "/api/yaml-check/validate"
	PathRules    = "/api/yaml-check/rules"
	PathHistory  = "/api/yaml-check/history"
	PathUpload   = "/api/yaml-test-plan/upload"
	PathHealth   = "/health"
	PathMetrics  = "/metrics"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 4 << 20

const shutdownTimeout = 5 * time.Second

// Options configures a Server. Every field is optional.
type Options struct {
	Logger *slog.Logger
	// Metrics enables /metrics and request metrics.
	Metrics *metrics.Collector
	// History records every validation run.
	History *history.Writer
	// StateDir is read by the history endpoint. Empty disables it.
	StateDir     string
	MaxBodyBytes int64
	// Health produces the /health report. Nil reports healthy with no checks.
	Health func() *health.HealthReport
}

// Server is the HTTP front end. The validator can be swapped while requests are in flight.
type Server struct {
	validator atomic.Pointer[validation.Validator]

	logger       *slog.Logger
	metrics      *metrics.Collector
	history      *history.Writer
	stateDir     string
	maxBodyBytes int64
	health       func() *health.HealthReport
	router       *mux.Router
}

// New creates a server that validates with v.
func New(v *validation.Validator, opts Options) *Server {
	s := &Server{
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		history:      opts.History,
		stateDir:     opts.StateDir,
		maxBodyBytes: opts.MaxBodyBytes,
		health:       opts.Health,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}
	s.validator.Store(v)
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(requestID, s.accessLog, s.recoverPanic)

	r.HandleFunc(PathValidate, s.handleValidate).Methods(http.MethodPost)
	r.HandleFunc(PathRules, s.handleRules).Methods(http.MethodGet)
	r.HandleFunc(PathUpload, s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc(PathHealth, s.handleHealth).Methods(http.MethodGet)
	if s.stateDir != "" {
		r.HandleFunc(PathHistory, s.handleHistory).Methods(http.MethodGet)
	}
	if s.metrics != nil {
		r.Handle(PathMetrics, s.metrics.Handler()).Methods(http.MethodGet)
	}

	// mux skips r.Use middleware for unmatched requests.
	r.NotFoundHandler = s.withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, fail(http.StatusNotFound, "Not found", nil))
	}))
	r.MethodNotAllowedHandler = s.withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, fail(http.StatusMethodNotAllowed, "Method not allowed", nil))
	}))

	s.router = r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Validator returns the validator currently serving requests.
func (s *Server) Validator() *validation.Validator { return s.validator.Load() }

// SetValidator swaps the validator. Requests already running finish with the old one.
func (s *Server) SetValidator(v *validation.Validator) {
	s.validator.Store(v)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
