package core

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// defaultRequestTimeout applies when Config.Server.RequestTimeout is zero.
// It sits one second under the API Gateway integration limit.
const defaultRequestTimeout = 29 * time.Second

// redactedHeaders are masked in request logs.
var redactedHeaders = []string{
	"Authorization",
	"Cookie",
	"Stripe-Signature",
}

// MountRoutes installs the global middleware chain, the health endpoint and
// every registered domain route.
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	s.router.Get("/health", s.HandleHealth)

	for _, register := range s.RouteRegistrars {
		register(s.router)
	}
}

// registerGlobalMiddleware applies middleware in order:
//
//  1. Recoverer       - outermost, so every panic is caught.
//  2. ContextTimeout  - bounds the Stripe and Firestore calls of one request.
//  3. RequestID       - correlation ID for logs and error bodies.
//  4. SecurityHeaders
//  5. RequestLogger   - Stripe-Signature and auth headers redacted.
//  6. CORS            - answers browser preflights for the checkout endpoint.
//  7. Metrics
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, redactedHeaders))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins(), s.corsOriginMatch()))
	s.router.Use(s.MetricsMiddleware)
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config != nil && s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return defaultRequestTimeout
}

func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Security.CorsAllowedOrigins) > 0 {
		return s.Config.Security.CorsAllowedOrigins
	}
	return []string{"*"}
}

func (s *Server) corsOriginMatch() string {
	if s.Config != nil && s.Config.Security.CorsOriginMatch != "" {
		return s.Config.Security.CorsOriginMatch
	}
	return "exact"
}

// ContextTimeoutMiddleware sets a deadline on the request context. Handlers
// see a cancelled context once it passes; the response is up to them.
func ContextTimeoutMiddleware(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware reuses an incoming X-Request-Id or generates a UUID,
// stores it in the context and echoes it in the response header.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := types.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
