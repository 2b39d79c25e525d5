// Package core provides the HTTP chassis for the checkout relay. It builds a
// chi router that serves both the standalone HTTP listener and the Lambda
// proxy entry point, and enforces the cross-cutting concerns (panic recovery,
// request IDs, logging, CORS, metrics, error rendering) before requests reach
// the checkout handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lucascsr96/SynkCamp/internal/config"
)

// MetricsCollector records API telemetry. The CloudWatch implementation
// lives in the telemetry package.
type MetricsCollector interface {
	RecordRequest(ctx context.Context, method, endpoint, status string, duration time.Duration)
}

// MetricsBatcher is implemented by collectors that publish everything one
// request records in a single call. The returned context carries the batch;
// flush publishes it.
type MetricsBatcher interface {
	StartBatch(ctx context.Context) (batchCtx context.Context, flush func())
}

// RouteRegistrar mounts domain routes onto the router. Registrars are supplied
// by main.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies shared by every request.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	RouteRegistrars []RouteRegistrar

	// Closers are invoked in order by Shutdown (e.g. the Firestore client).
	Closers []func() error

	router *chi.Mux
}

// NewServer validates the required dependencies and prepares an empty router.
// Callers mount routes with MountRoutes after populating RouteRegistrars.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases resources registered in Closers. All closers run even if
// one fails; the first error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")

	var firstErr error
	for _, closeFn := range s.Closers {
		if err := closeFn(); err != nil {
			s.Logger.ErrorContext(ctx, "error closing resource", "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("closing resource: %w", err)
			}
		}
	}

	s.Logger.InfoContext(ctx, "server shutdown complete")
	return firstErr
}
