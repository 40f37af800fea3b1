package sourceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nkgotcode/vietmarket/internal/apperr"
)

func TestGet_SucceedsOnFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig("test-ok")
	cfg.BaseDelay = time.Millisecond
	c := New(cfg)

	res := c.Get(context.Background(), srv.URL, nil, nil)
	if !res.OK {
		t.Fatalf("expected ok result, got %+v", res)
	}
	if res.JSON["ok"] != true {
		t.Fatalf("expected parsed json, got %+v", res.JSON)
	}
}

func TestGet_RetriesOn500ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig("test-retry")
	cfg.BaseDelay = time.Millisecond
	cfg.MaxFailures = 100
	c := New(cfg)

	res := c.Get(context.Background(), srv.URL, nil, nil)
	if !res.OK {
		t.Fatalf("expected eventual success, got %+v", res)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestGet_DoesNotRetryOn404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := DefaultConfig("test-404")
	cfg.BaseDelay = time.Millisecond
	c := New(cfg)

	res := c.Get(context.Background(), srv.URL, nil, nil)
	if res.OK {
		t.Fatalf("expected non-ok result for 404")
	}
	if apperr.KindOf(res.Err) != apperr.KindSourceTerminal {
		t.Fatalf("expected SourceTerminal kind, got %v", apperr.KindOf(res.Err))
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly 1 call (no retry on 4xx), got %d", calls)
	}
}

func TestGet_AbortsOnContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultConfig("test-cancel")
	cfg.BaseDelay = 50 * time.Millisecond
	cfg.MaxFailures = 100
	c := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res := c.Get(ctx, srv.URL, nil, nil)
	if res.OK {
		t.Fatalf("expected failure after cancellation")
	}
}
