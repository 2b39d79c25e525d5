package core

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// responseCapture records the status code written by downstream handlers.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rc *responseCapture) Unwrap() http.ResponseWriter {
	return rc.ResponseWriter
}

// Recoverer catches panics in the handler chain, logs the stack and answers
// with a generic 500 body. It must be the outermost middleware.
func (s *Server) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			s.Logger.ErrorContext(r.Context(), "panic recovered",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("panic", fmt.Sprintf("%v", rvr)),
				slog.String("stack", string(debug.Stack())),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = writeJSON(w, ErrorResponse{
				Error:     genericInternalMessage,
				Code:      string(types.ErrCodeInternalUnexpected),
				RequestID: types.GetRequestID(r.Context()),
			})
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs method, path, status and duration of every request. The
// values of headers listed in redacted (case-insensitive) are masked.
func RequestLogger(logger *slog.Logger, redacted []string) func(http.Handler) http.Handler {
	redactSet := make(map[string]struct{}, len(redacted))
	for _, h := range redacted {
		redactSet[strings.ToLower(h)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rc := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rc, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rc.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if reqID := types.GetRequestID(r.Context()); reqID != "" {
				attrs = append(attrs, slog.String("request_id", reqID))
			}

			headerAttrs := make([]any, 0, len(r.Header))
			for name, values := range r.Header {
				if _, redact := redactSet[strings.ToLower(name)]; redact {
					headerAttrs = append(headerAttrs, slog.String(name, "[REDACTED]"))
					continue
				}
				headerAttrs = append(headerAttrs, slog.String(name, strings.Join(values, ", ")))
			}
			if len(headerAttrs) > 0 {
				attrs = append(attrs, slog.Group("headers", headerAttrs...))
			}

			ctx := r.Context()
			switch {
			case rc.statusCode >= 500:
				logger.ErrorContext(ctx, "request completed", attrs...)
			case rc.statusCode >= 400:
				logger.WarnContext(ctx, "request completed", attrs...)
			default:
				logger.InfoContext(ctx, "request completed", attrs...)
			}
		})
	}
}

// MetricsMiddleware records latency and count per route. When the collector
// is a MetricsBatcher, everything recorded while serving the request is
// published once, after the request metrics. It is a pass-through when no
// collector is configured.
func (s *Server) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		if b, ok := s.Metrics.(MetricsBatcher); ok {
			ctx, flush := b.StartBatch(r.Context())
			defer flush()
			r = r.WithContext(ctx)
		}

		start := time.Now()
		rc := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rc, r)

		s.Metrics.RecordRequest(r.Context(), r.Method, routePattern(r), strconv.Itoa(rc.statusCode), time.Since(start))
	})
}

// routePattern prefers the matched chi pattern so metric cardinality stays
// bounded; unmatched paths collapse to "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// SecurityHeadersMiddleware sets the standard hardening headers on every
// response.
func (s *Server) SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON formats the known-safe error body by hand so the panic path does
// not depend on encoding/json.
func writeJSON(w http.ResponseWriter, resp ErrorResponse) error {
	s := fmt.Sprintf(
		`{"error":"%s","code":"%s","request_id":"%s"}`,
		escapeJSON(resp.Error), escapeJSON(resp.Code), escapeJSON(resp.RequestID),
	)
	_, err := w.Write([]byte(s))
	return err
}

func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
