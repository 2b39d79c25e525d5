package external

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

func noopSleep(time.Duration) {}

func newTestClient(t *testing.T, policy RetryPolicy, opts ...BaseClientOption) *BaseClient {
	t.Helper()
	opts = append([]BaseClientOption{WithSleepFunc(noopSleep)}, opts...)
	return NewBaseClient(&http.Client{Timeout: 5 * time.Second}, "test-breaker", policy, "SynkCamp-Test/1.0", opts...)
}

func mustRequest(t *testing.T, ctx context.Context, method, url, body string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return req
}

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	resp, err := newTestClient(t, DefaultRetryPolicy()).Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDo_PropagatesRequestIDAndUserAgent(t *testing.T) {
	var gotID, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	ctx := types.WithRequestID(context.Background(), "req-abc")
	resp, err := newTestClient(t, DefaultRetryPolicy()).Do(mustRequest(t, ctx, http.MethodGet, server.URL, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotID != "req-abc" {
		t.Errorf("expected X-Request-Id req-abc, got %q", gotID)
	}
	if gotUA != "SynkCamp-Test/1.0" {
		t.Errorf("expected User-Agent SynkCamp-Test/1.0, got %q", gotUA)
	}
}

func TestDo_RetriesOn500ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := newTestClient(t, RetryPolicy{MaxRetries: 3, MinWait: time.Millisecond, MaxWait: time.Millisecond}).
		Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestDo_ExhaustedRetries(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode types.ErrorCode
	}{
		{"server error", http.StatusInternalServerError, types.ErrCodeUpstreamUnavailable},
		{"rate limited", http.StatusTooManyRequests, types.ErrCodeUpstreamRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestClient(t, RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: time.Millisecond}).
				Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, ""))

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *types.AppError, got %T (%v)", err, err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, appErr.Code)
			}
			if calls.Load() != 3 {
				t.Errorf("expected 3 attempts, got %d", calls.Load())
			}
		})
	}
}

func TestDo_4xxNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	resp, err := newTestClient(t, DefaultRetryPolicy()).Do(mustRequest(t, context.Background(), http.MethodPost, server.URL, "a=b"))
	if err != nil {
		t.Fatalf("4xx should be returned as a response, got error %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestDo_PostBodyPreservedAcrossRetries(t *testing.T) {
	var bodies []string
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := newTestClient(t, RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond}).
		Do(mustRequest(t, context.Background(), http.MethodPost, server.URL, "mode=subscription"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(bodies) != 2 || bodies[0] != "mode=subscription" || bodies[1] != "mode=subscription" {
		t.Errorf("body not replayed: %v", bodies)
	}
}

func TestDo_NetworkErrorMapsToUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond}).
		Do(mustRequest(t, context.Background(), http.MethodGet, url, ""))

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Errorf("expected %s, got %s", types.ErrCodeUpstreamUnavailable, appErr.Code)
	}
}

func TestDo_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "test",
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	})
	client := newTestClient(t, RetryPolicy{MaxRetries: 0}, WithBreaker(breaker))

	for i := 0; i < 2; i++ {
		_, _ = client.Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, ""))
	}
	if client.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("expected breaker open, got %s", client.BreakerState())
	}

	_, err := client.Do(mustRequest(t, context.Background(), http.MethodGet, server.URL, ""))
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Fatalf("expected upstream_unavailable from open breaker, got %v", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Error("expected ErrOpenState in the cause chain")
	}
	if calls.Load() != 2 {
		t.Errorf("open breaker should not reach the server; calls=%d", calls.Load())
	}
}

func TestDo_StopsRetryingWhenContextDone(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(t, RetryPolicy{MaxRetries: 5, MinWait: time.Millisecond, MaxWait: time.Millisecond}).
		Do(mustRequest(t, ctx, http.MethodGet, server.URL, ""))
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retries after cancellation, got %d calls", calls.Load())
	}
}

func TestComputeBackoff(t *testing.T) {
	c := newTestClient(t, RetryPolicy{MaxRetries: 3, MinWait: 100 * time.Millisecond, MaxWait: time.Second})

	if got := c.computeBackoff(0, nil); got != 100*time.Millisecond {
		t.Errorf("attempt 0: expected MinWait, got %v", got)
	}
	for attempt := 1; attempt < 6; attempt++ {
		got := c.computeBackoff(attempt, nil)
		if got < 100*time.Millisecond || got > time.Second {
			t.Errorf("attempt %d: backoff %v out of bounds", attempt, got)
		}
	}

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	if got := c.computeBackoff(0, resp); got != time.Second {
		t.Errorf("Retry-After should be capped at MaxWait, got %v", got)
	}
}
