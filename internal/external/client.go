// Package external is the boundary between the checkout relay and third-party
// HTTP APIs. Outbound calls go through BaseClient, which applies circuit
// breaking, bounded retries with backoff, request-ID propagation and error
// mapping to types.AppError.
package external

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// RetryPolicy configures BaseClient retries.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns the defaults used for Stripe.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    500 * time.Millisecond,
		MaxWait:    5 * time.Second,
	}
}

// BaseClient wraps an *http.Client with a circuit breaker and retries.
type BaseClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	sleepFn     func(time.Duration)
}

// BaseClientOption configures a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep between retries (tests pass a no-op).
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) {
		c.breaker = cb
	}
}

// NewBaseClient creates a BaseClient whose breaker opens after more than five
// consecutive failures and half-opens after 30 seconds.
func NewBaseClient(httpClient *http.Client, breakerName string, retryPolicy RetryPolicy, userAgent string, opts ...BaseClientOption) *BaseClient {
	bc := &BaseClient{
		client:      httpClient,
		breaker:     newBreaker(breakerName),
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		sleepFn:     time.Sleep,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

func newBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// BreakerState reports the current circuit breaker state.
func (c *BaseClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Do executes req with the request ID propagated as X-Request-Id, the
// configured User-Agent, circuit breaking, and retries on 429/5xx (honouring
// Retry-After). The body is buffered so it can be replayed.
//
// Any response that is not a retryable failure (2xx, 3xx, 4xx other than 429)
// is returned as-is and the caller must close its body. Exhausted retries and
// an open breaker return a *types.AppError.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if reqID := types.GetRequestID(req.Context()); reqID != "" {
		req.Header.Set("X-Request-Id", reqID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to buffer request body", err)
		}
		req.Body.Close()
	}

	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if req.Context().Err() != nil {
			break
		}

		if attempt < maxAttempts-1 {
			c.sleepFn(c.computeBackoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}
	return nil, c.mapError(lastResp, lastErr)
}

// computeBackoff honours Retry-After (seconds or HTTP date) and otherwise uses
// exponential backoff with jitter clamped to [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	base := math.Min(float64(c.retryPolicy.MinWait)*math.Pow(2, float64(attempt)), float64(c.retryPolicy.MaxWait))
	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

// mapError turns transport-level failures into upstream AppErrors. Messages
// are generic; the cause stays in Err for logging.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream circuit breaker is open", err)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err)
		case resp.StatusCode >= 500:
			return types.NewAppError(types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d after retries", resp.StatusCode), err)
		}
	}

	return types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", err)
}
