package derived

import (
	"time"

	"github.com/nkgotcode/vietmarket/internal/database"
)

const (
	frontierStatusFresh   = "fresh"
	frontierStatusStale   = "stale"
	frontierStatusUnknown = "unknown"
)

// BuildMarketStat composes one market_stats KPI row from the raw counts a
// derived-sync run observed for tf.
func BuildMarketStat(tf string, eligibleTotal, withCandles int, rowsCount int64, maxTS int64, now time.Time, staleAfter time.Duration) database.MarketStatRow {
	missing := eligibleTotal - withCandles
	if missing < 0 {
		missing = 0
	}
	var coveragePct float64
	if eligibleTotal > 0 {
		coveragePct = float64(withCandles) / float64(eligibleTotal) * 100
	}

	status := frontierStatusUnknown
	var lagMs int64
	if maxTS > 0 {
		lagMs = now.UnixMilli() - maxTS
		if lagMs < 0 {
			lagMs = 0
		}
		if time.Duration(lagMs)*time.Millisecond <= staleAfter {
			status = frontierStatusFresh
		} else {
			status = frontierStatusStale
		}
	}

	return database.MarketStatRow{
		TF:                   tf,
		CandlesEligibleTotal: eligibleTotal,
		CandlesWithCandles:   withCandles,
		CandlesMissing:       missing,
		CandlesCoveragePct:   coveragePct,
		RowsCount:            rowsCount,
		TickersCount:         withCandles,
		FrontierStatus:       status,
		FrontierLagMs:        lagMs,
	}
}
