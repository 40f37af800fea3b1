package ingestcandle

import "testing"

func TestObserveFrontier_StopsOnShortPage(t *testing.T) {
	fr := &frontierState{}
	if !observeFrontier(fr, 100, false) {
		t.Fatal("expected frontier stop on short page (hasMore=false)")
	}
}

func TestObserveFrontier_ContinuesWhileAdvancing(t *testing.T) {
	fr := &frontierState{}
	if observeFrontier(fr, 100, true) {
		t.Fatal("expected to continue on first advancing page")
	}
	if observeFrontier(fr, 200, true) {
		t.Fatal("expected to continue on second advancing page")
	}
}

func TestObserveFrontier_StopsAfterStaleThreshold(t *testing.T) {
	fr := &frontierState{}
	if observeFrontier(fr, 100, true) {
		t.Fatal("expected to continue")
	}
	if observeFrontier(fr, 100, true) {
		t.Fatal("expected to continue after 1 stale hit (threshold 2)")
	}
	if !observeFrontier(fr, 100, true) {
		t.Fatal("expected frontier reached after 2 consecutive non-advancing pages")
	}
}

func TestObserveFrontier_ResetsOnAdvance(t *testing.T) {
	fr := &frontierState{}
	observeFrontier(fr, 100, true)
	observeFrontier(fr, 100, true) // 1 stale hit
	if observeFrontier(fr, 150, true) {
		t.Fatal("expected reset when newest timestamp advances again")
	}
	if fr.stalePageHits != 0 {
		t.Fatalf("expected stalePageHits reset to 0, got %d", fr.stalePageHits)
	}
}
