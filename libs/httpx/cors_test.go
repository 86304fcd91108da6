package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func corsTestHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithCORSAllowedOrigin(t *testing.T) {
	var called bool
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://app.pontual.local"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         10 * time.Minute,
	})(corsTestHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	req.Header.Set("Origin", "https://app.pontual.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("handler not reached for allowed origin")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.pontual.local" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("Access-Control-Max-Age = %q", got)
	}
	if vary := rec.Header().Values("Vary"); len(vary) == 0 {
		t.Fatal("expected Vary headers")
	}
}

func TestWithCORSPreflight(t *testing.T) {
	var called bool
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://app.pontual.local"},
		AllowedMethods: []string{http.MethodPost},
	})(corsTestHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/appointments", nil)
	req.Header.Set("Origin", "https://app.pontual.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Fatal("preflight must not reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Fatalf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestWithCORSDisallowedOrigin(t *testing.T) {
	var called bool
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://app.pontual.local"},
	})(corsTestHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("request should pass through without CORS headers")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected Access-Control-Allow-Origin %q", got)
	}
}

func TestWithCORSWildcard(t *testing.T) {
	var called bool

	h := WithCORS(CORSPolicy{AllowedOrigins: []string{"*"}})(corsTestHandler(&called))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}

	// With credentials the wildcard must echo the caller's origin.
	h = WithCORS(CORSPolicy{AllowedOrigins: []string{"*"}, AllowCredentials: true})(corsTestHandler(&called))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want echoed origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("Access-Control-Allow-Credentials = %q", got)
	}
}

func TestWithCORSEmptyPolicyIsNoop(t *testing.T) {
	var called bool
	h := WithCORS(CORSPolicy{})(corsTestHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.pontual.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("handler not reached")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected Access-Control-Allow-Origin %q", got)
	}
}
