package shard

import (
	"reflect"
	"testing"
	"time"
)

func TestOfIsDeterministic(t *testing.T) {
	for _, ticker := range []string{"FPT", "HPG", "VNM", "ACB"} {
		first := Of(ticker, 8)
		for i := 0; i < 50; i++ {
			if got := Of(ticker, 8); got != first {
				t.Fatalf("Of(%q, 8) not stable: got %d, want %d", ticker, got, first)
			}
		}
	}
}

func TestOfInRange(t *testing.T) {
	for _, ticker := range []string{"FPT", "HPG", "VNM", "ACB", "VIC", "MSN"} {
		s := Of(ticker, 4)
		if s < 0 || s >= 4 {
			t.Fatalf("Of(%q, 4) out of range: %d", ticker, s)
		}
	}
}

func TestNormalizeUniverse(t *testing.T) {
	in := []string{"fpt", " HPG ", "FPT", "bad ticker!", "a", "VNM.X"}
	got := NormalizeUniverse(in)
	want := []string{"FPT", "HPG", "VNM.X"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeUniverse() = %v, want %v", got, want)
	}
}

func TestTickersForShardPartitionsUniverse(t *testing.T) {
	universe := NormalizeUniverse([]string{"FPT", "HPG", "VNM", "ACB", "VIC", "MSN", "MWG", "VCB"})
	const shardCount = 3

	seen := map[string]bool{}
	for shardIdx := 0; shardIdx < shardCount; shardIdx++ {
		for _, t2 := range TickersForShard(universe, shardIdx, shardCount) {
			if seen[t2] {
				t.Fatalf("ticker %q assigned to more than one shard", t2)
			}
			seen[t2] = true
		}
	}
	if len(seen) != len(universe) {
		t.Fatalf("expected every ticker assigned exactly once, got %d of %d", len(seen), len(universe))
	}
}

func TestSelectBatchWrapsAround(t *testing.T) {
	tickers := []string{"A1", "B2", "C3", "D4", "E5"}
	now := time.Unix(0, 0)

	batch1, cur1 := SelectBatch(tickers, 2, Cursor{}, now)
	if !reflect.DeepEqual(batch1, []string{"A1", "B2"}) {
		t.Fatalf("batch1 = %v", batch1)
	}
	if cur1.NextIndex != 2 {
		t.Fatalf("cur1.NextIndex = %d, want 2", cur1.NextIndex)
	}

	batch2, cur2 := SelectBatch(tickers, 2, cur1, now)
	if !reflect.DeepEqual(batch2, []string{"C3", "D4"}) {
		t.Fatalf("batch2 = %v", batch2)
	}

	batch3, cur3 := SelectBatch(tickers, 2, cur2, now)
	if !reflect.DeepEqual(batch3, []string{"E5", "A1"}) {
		t.Fatalf("batch3 = %v, want wraparound [E5 A1]", batch3)
	}
	if cur3.NextIndex != 1 {
		t.Fatalf("cur3.NextIndex = %d, want 1", cur3.NextIndex)
	}
}

func TestSelectBatchEmptyUniverse(t *testing.T) {
	batch, cur := SelectBatch(nil, 5, Cursor{NextIndex: 3}, time.Unix(0, 0))
	if len(batch) != 0 {
		t.Fatalf("expected empty batch, got %v", batch)
	}
	if cur.NextIndex != 0 {
		t.Fatalf("expected cursor reset to 0, got %d", cur.NextIndex)
	}
}
