package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestAuthMiddleware_RejectsMissingKey(t *testing.T) {
	s := &Server{APIKey: "secret", Log: zerolog.Nop()}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.authMiddleware(next).ServeHTTP(rec, req)

	if called {
		t.Fatal("expected handler not to be called without x-api-key")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_AcceptsMatchingKey(t *testing.T) {
	s := &Server{APIKey: "secret", Log: zerolog.Nop()}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	s.authMiddleware(next).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called with matching x-api-key")
	}
}

func TestAuthMiddleware_RejectsWrongKey(t *testing.T) {
	s := &Server{APIKey: "secret", Log: zerolog.Nop()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("x-api-key", "wrong")
	rec := httptest.NewRecorder()
	s.authMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
