package repair

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nkgotcode/vietmarket/internal/tradingcalendar"
)

func noHolidaysCalendar(t *testing.T) *tradingcalendar.Calendar {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "2025.json")
	if err := os.WriteFile(path, []byte(`{"holidays":[]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cal, err := tradingcalendar.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cal
}

func TestDetectGaps_DailyNoMissing(t *testing.T) {
	cal := noHolidaysCalendar(t)
	from := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC).UnixMilli()
	to := time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC).UnixMilli()

	expected := expectedGrid(cal, from, to, 0)
	if len(expected) == 0 {
		t.Fatal("expected non-empty grid for a trading week")
	}

	gaps := DetectGaps(cal, from, to, 0, expected)
	if len(gaps) != 0 {
		t.Fatalf("expected no gaps when all bars present, got %v", gaps)
	}
}

func TestDetectGaps_DetectsContiguousMissingWindow(t *testing.T) {
	cal := noHolidaysCalendar(t)
	from := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC).UnixMilli()
	to := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC).UnixMilli()

	expected := expectedGrid(cal, from, to, 0)
	if len(expected) < 3 {
		t.Fatalf("expected at least 3 grid points, got %d", len(expected))
	}

	// Drop the middle bar to create a single-bar gap.
	missingIdx := len(expected) / 2
	existing := make([]int64, 0, len(expected)-1)
	for i, ts := range expected {
		if i == missingIdx {
			continue
		}
		existing = append(existing, ts)
	}

	gaps := DetectGaps(cal, from, to, 0, existing)
	if len(gaps) != 1 {
		t.Fatalf("expected exactly 1 gap window, got %d: %v", len(gaps), gaps)
	}
	if gaps[0].StartMs != expected[missingIdx] || gaps[0].EndMs != expected[missingIdx] {
		t.Fatalf("gap window = %+v, want single bar at %d", gaps[0], expected[missingIdx])
	}
	if gaps[0].ExpectedBars != 1 {
		t.Fatalf("expected ExpectedBars=1, got %d", gaps[0].ExpectedBars)
	}
}

func TestDetectGaps_EmptyExistingYieldsOneBigWindow(t *testing.T) {
	cal := noHolidaysCalendar(t)
	from := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC).UnixMilli()
	to := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC).UnixMilli()

	gaps := DetectGaps(cal, from, to, 0, nil)
	if len(gaps) != 1 {
		t.Fatalf("expected a single contiguous window covering the whole range, got %d", len(gaps))
	}
}
