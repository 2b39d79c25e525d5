package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsProbe(t *testing.T, origins []string, match, origin string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewCORSMiddleware(origins, match)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORS_Wildcard(t *testing.T) {
	rec := corsProbe(t, []string{"*"}, "exact", "https://anything.test")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected *, got %q", got)
	}
}

func TestCORS_ExactMatch(t *testing.T) {
	origins := []string{"https://synkcamp.app"}

	rec := corsProbe(t, origins, "exact", "https://synkcamp.app")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://synkcamp.app" {
		t.Errorf("expected exact origin to be allowed, got %q", got)
	}

	rec = corsProbe(t, origins, "exact", "https://synkcamp.app.evil.test")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected look-alike origin to be rejected in exact mode, got %q", got)
	}
}

func TestCORS_PrefixMatch(t *testing.T) {
	origins := []string{"https://synkcamp"}

	for _, origin := range []string{"https://synkcamp.app", "https://synkcamp-git-main.vercel.app"} {
		rec := corsProbe(t, origins, "prefix", origin)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("origin %s: expected allowed in prefix mode, got %q", origin, got)
		}
	}

	rec := corsProbe(t, origins, "prefix", "https://other.test")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected unrelated origin to be rejected, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := NewCORSMiddleware([]string{"https://synkcamp.app"}, "exact")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/create-checkout-session", nil)
	req.Header.Set("Origin", "https://synkcamp.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("preflight should be answered by the CORS middleware")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != http.MethodPost {
		t.Errorf("expected POST in allow-methods, got %q", got)
	}
}

func TestCORS_PreflightDisallowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://synkcamp.app"}, "exact")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/create-checkout-session", nil)
	req.Header.Set("Origin", "https://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin for disallowed origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Errorf("expected no allow-methods for disallowed origin, got %q", got)
	}
}
