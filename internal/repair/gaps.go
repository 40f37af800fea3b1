// Package repair implements the gap detector side of candle repair:
// scanning candle coverage against the expected bar grid and enqueueing
// contiguous missing windows. Draining the queue through a fetch+upsert
// repair pass lives in cmd/gap-repair.
package repair

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/tradingcalendar"
)

// Window is one contiguous missing-bar range.
type Window struct {
	StartMs      int64
	EndMs        int64
	ExpectedBars int
}

// DetectGaps compares existing bar timestamps against the expected grid for
// [fromMs, toMs] and returns contiguous missing windows. existing must be
// sorted ascending. Daily tfs expect one bar per trading day at session
// close; intraday tfs expect every bar start from session open up to (not
// including) session close on each trading day, kept within [fromMs, toMs].
func DetectGaps(cal *tradingcalendar.Calendar, fromMs, toMs int64, tfMinutesPerBar int, existing []int64) []Window {
	expected := expectedGrid(cal, fromMs, toMs, tfMinutesPerBar)
	if len(expected) == 0 {
		return nil
	}

	have := make(map[int64]struct{}, len(existing))
	for _, ts := range existing {
		have[ts] = struct{}{}
	}

	var windows []Window
	var cur *Window
	for _, ts := range expected {
		if _, ok := have[ts]; ok {
			if cur != nil {
				windows = append(windows, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &Window{StartMs: ts, EndMs: ts, ExpectedBars: 1}
		} else {
			cur.EndMs = ts
			cur.ExpectedBars++
		}
	}
	if cur != nil {
		windows = append(windows, *cur)
	}
	return windows
}

// expectedGrid enumerates the millisecond timestamps the tf grid should
// produce within [fromMs, toMs], gated by the trading calendar.
func expectedGrid(cal *tradingcalendar.Calendar, fromMs, toMs int64, tfMinutesPerBar int) []int64 {
	var out []int64
	from := time.UnixMilli(fromMs)
	to := time.UnixMilli(toMs)

	if tfMinutesPerBar <= 0 || tfMinutesPerBar >= 24*60 {
		// daily grid: one bar per trading day at session close.
		day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
		for !day.After(last) {
			if cal.IsTradingDay(day) {
				_, close := tradingcalendar.SessionBounds(day)
				out = append(out, close.UnixMilli())
			}
			day = day.AddDate(0, 0, 1)
		}
		return out
	}

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	for !day.After(last) {
		if cal.IsTradingDay(day) {
			open, close := tradingcalendar.SessionBounds(day)
			for ts := open; ts.Before(close); ts = ts.Add(time.Duration(tfMinutesPerBar) * time.Minute) {
				ms := ts.UnixMilli()
				if ms >= fromMs && ms <= toMs {
					out = append(out, ms)
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// EnqueueGaps writes one candle_repair_queue row per window, deduplicating
// on (ticker, tf, window_start_ts, window_end_ts): queued/running rows are
// refreshed in place (expected_bars); done rows are left untouched.
func EnqueueGaps(ctx context.Context, store *database.Store, ticker, tf string, windows []Window) error {
	for _, w := range windows {
		if err := store.EnqueueRepairWindow(ctx, ticker, tf, w.StartMs, w.EndMs, w.ExpectedBars); err != nil {
			return err
		}
	}
	return nil
}

// NewRepairID generates a fresh UUID for a repair_queue or repairs row.
func NewRepairID() string {
	return uuid.NewString()
}
