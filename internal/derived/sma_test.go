package derived

import (
	"testing"

	"github.com/nkgotcode/vietmarket/internal/database"
)

func TestSMA_AveragesAvailableWindow(t *testing.T) {
	candles := []database.Candle{{C: 30}, {C: 20}, {C: 10}}
	got := SMA(candles, 3)
	if got == nil || *got != 20 {
		t.Fatalf("expected SMA=20, got %v", got)
	}
}

func TestSMA_ClampsToAvailableLength(t *testing.T) {
	candles := []database.Candle{{C: 10}, {C: 20}}
	got := SMA(candles, 5)
	if got == nil || *got != 15 {
		t.Fatalf("expected SMA=15 over 2 available points, got %v", got)
	}
}

func TestSMA_EmptyYieldsNil(t *testing.T) {
	if got := SMA(nil, 20); got != nil {
		t.Fatalf("expected nil for empty candles, got %v", got)
	}
}
