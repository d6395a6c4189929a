// Package server exposes a jsgate Gateway over HTTP.
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robbyt/go-jsgate"
	"github.com/robbyt/go-jsgate/internal/config"
	"github.com/robbyt/go-jsgate/internal/helpers"
	"github.com/robbyt/go-jsgate/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Evaluator is the part of jsgate.Gateway the server needs.
type Evaluator interface {
	Evaluate(ctx context.Context, raw []byte) *jsgate.Result
}

// Server is the HTTP front end for evaluations.
type Server struct {
	cfg     config.ServerConfig
	gateway Evaluator
	metrics *metrics.Collector
	router  chi.Router

	inFlight atomic.Int32

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Server. A nil collector disables metrics and the /metrics route.
func New(
	handler slog.Handler,
	cfg config.ServerConfig,
	gateway Evaluator,
	collector *metrics.Collector,
) (*Server, error) {
	if gateway == nil {
		return nil, errors.New("gateway is nil")
	}
	if cfg.MaxBodyBytes <= 0 || cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("max_body_bytes and max_concurrent must be positive, got %d and %d",
			cfg.MaxBodyBytes, cfg.MaxConcurrent)
	}

	kinds := make([]string, 0, len(jsgate.Kinds))
	for _, kind := range jsgate.Kinds {
		kinds = append(kinds, string(kind))
	}
	collector.InitKinds(kinds...)

	handler, logger := helpers.SetupLogger(handler, "server", "Server")
	s := &Server{
		cfg:        cfg,
		gateway:    gateway,
		metrics:    collector,
		logHandler: handler,
		logger:     logger,
	}
	s.router = s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the router with all routes.
func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{Registry: s.metrics.Registry}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
	})

	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("jsgate server starting",
			"addr", ln.Addr().String(), "max_concurrent", s.cfg.MaxConcurrent)
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(r.Method, route, status)
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()),
		)
	})
}
