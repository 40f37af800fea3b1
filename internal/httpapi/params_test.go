package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestParseCandlesQuery_Valid(t *testing.T) {
	req := httptest.NewRequest("GET", "/candles?ticker=FPT&tf=1d&limit=100&beforeTs=12345", nil)
	q, beforeTS, err := parseCandlesQuery(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Ticker != "FPT" || q.TF != "1d" || q.Limit != 100 {
		t.Fatalf("unexpected parsed query: %+v", q)
	}
	if beforeTS == nil || *beforeTS != 12345 {
		t.Fatalf("expected beforeTS=12345, got %v", beforeTS)
	}
}

func TestParseCandlesQuery_MissingTicker(t *testing.T) {
	req := httptest.NewRequest("GET", "/candles?tf=1d", nil)
	if _, _, err := parseCandlesQuery(req); err == nil {
		t.Fatal("expected error for missing ticker")
	}
}

func TestParseCandlesQuery_InvalidTF(t *testing.T) {
	req := httptest.NewRequest("GET", "/candles?ticker=FPT&tf=5m", nil)
	if _, _, err := parseCandlesQuery(req); err == nil {
		t.Fatal("expected error for invalid tf")
	}
}

func TestParseCandlesQuery_DefaultLimit(t *testing.T) {
	req := httptest.NewRequest("GET", "/candles?ticker=FPT&tf=1d", nil)
	q, _, err := parseCandlesQuery(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit != 500 {
		t.Fatalf("expected default limit 500, got %d", q.Limit)
	}
}

func TestParseCandlesQuery_LimitOutOfRange(t *testing.T) {
	req := httptest.NewRequest("GET", "/candles?ticker=FPT&tf=1d&limit=5000", nil)
	if _, _, err := parseCandlesQuery(req); err == nil {
		t.Fatal("expected error for out-of-range limit")
	}
}

func TestParseNewsQuery_ParsesBeforeCursor(t *testing.T) {
	req := httptest.NewRequest("GET", "/news/latest?beforePublishedAt=2025-01-01T00:00:00Z&beforeUrl=https://x", nil)
	_, beforePublishedAt, beforeURL, err := parseNewsQuery(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if beforePublishedAt == nil || beforeURL == nil || *beforeURL != "https://x" {
		t.Fatalf("expected both cursor fields set, got %v %v", beforePublishedAt, beforeURL)
	}
}
