package derived

import (
	"testing"
	"time"
)

func TestBuildMarketStat_ComputesCoverageAndFreshFrontier(t *testing.T) {
	now := time.Unix(1700000000, 0)
	maxTS := now.Add(-1 * time.Minute).UnixMilli()
	stat := BuildMarketStat("1d", 100, 80, 12345, maxTS, now, 10*time.Minute)

	if stat.CandlesMissing != 20 {
		t.Fatalf("expected missing=20, got %d", stat.CandlesMissing)
	}
	if stat.CandlesCoveragePct != 80 {
		t.Fatalf("expected coverage=80, got %v", stat.CandlesCoveragePct)
	}
	if stat.FrontierStatus != frontierStatusFresh {
		t.Fatalf("expected fresh frontier, got %v", stat.FrontierStatus)
	}
}

func TestBuildMarketStat_StaleFrontierBeyondThreshold(t *testing.T) {
	now := time.Unix(1700000000, 0)
	maxTS := now.Add(-1 * time.Hour).UnixMilli()
	stat := BuildMarketStat("1d", 100, 80, 12345, maxTS, now, 10*time.Minute)
	if stat.FrontierStatus != frontierStatusStale {
		t.Fatalf("expected stale frontier, got %v", stat.FrontierStatus)
	}
}

func TestBuildMarketStat_UnknownFrontierWhenNoCandles(t *testing.T) {
	now := time.Unix(1700000000, 0)
	stat := BuildMarketStat("1d", 100, 0, 0, 0, now, 10*time.Minute)
	if stat.FrontierStatus != frontierStatusUnknown {
		t.Fatalf("expected unknown frontier, got %v", stat.FrontierStatus)
	}
	if stat.CandlesMissing != 100 {
		t.Fatalf("expected missing=100, got %d", stat.CandlesMissing)
	}
}

func TestBuildMarketStat_ZeroEligibleAvoidsDivideByZero(t *testing.T) {
	now := time.Unix(1700000000, 0)
	stat := BuildMarketStat("1d", 0, 0, 0, 0, now, 10*time.Minute)
	if stat.CandlesCoveragePct != 0 {
		t.Fatalf("expected coverage=0 with no eligible tickers, got %v", stat.CandlesCoveragePct)
	}
}
