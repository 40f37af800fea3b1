// Package derived implements the periodic rebuild of summary tables
// (fundamentals, technical_indicators, indicators, market_stats) from raw
// ingest outputs.
package derived

import "github.com/nkgotcode/vietmarket/internal/database"

// SMA computes the simple moving average of up to window closes from
// candles, which is assumed newest-first (the shape QueryCandles returns).
// Returns nil if there are no candles.
func SMA(candles []database.Candle, window int) *float64 {
	if len(candles) == 0 || window <= 0 {
		return nil
	}
	n := window
	if n > len(candles) {
		n = len(candles)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += candles[i].C
	}
	avg := sum / float64(n)
	return &avg
}
