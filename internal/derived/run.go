package derived

import (
	"context"
	"strconv"
	"time"

	"github.com/nkgotcode/vietmarket/internal/database"
)

// Config tunes one derived-sync run.
type Config struct {
	Universe   []string
	TFs        []string
	SMAWindow  int
	StaleAfter time.Duration
}

// DefaultConfig mirrors the worker's conservative batch defaults.
func DefaultConfig() Config {
	return Config{
		TFs:        []string{"15m", "1h", "1d"},
		SMAWindow:  20,
		StaleAfter: 30 * time.Minute,
	}
}

// Summary is the outcome of one derived-sync run.
type Summary struct {
	TFsProcessed       int
	TechnicalIndicators int
	Indicators         int
	Errors             int
	Duration           time.Duration
}

// Run rebuilds technical_indicators, indicators, fundamentals, and
// market_stats from current warehouse state. Every group
// is replaced via delete-then-insert inside its own transaction, so a
// failure partway through leaves previously-rebuilt groups intact and
// simply retries on the next scheduled invocation.
func Run(ctx context.Context, cfg Config, store *database.Store, now time.Time) Summary {
	start := time.Now()
	var errs int
	var techRows []database.TechnicalIndicatorRow

	for _, tf := range cfg.TFs {
		latest, err := store.QueryLatest(ctx, tf, 100000)
		if err != nil {
			errs++
			continue
		}
		for _, row := range latest {
			history, err := store.QueryCandles(ctx, row.Ticker, tf, nil, cfg.SMAWindow)
			if err != nil {
				errs++
				continue
			}
			if sma := SMA(history, cfg.SMAWindow); sma != nil {
				techRows = append(techRows, database.TechnicalIndicatorRow{
					Ticker: row.Ticker, TF: tf, Name: "sma" + strconv.Itoa(cfg.SMAWindow), Value: sma,
				})
			}
		}

		tickers, maxTS, err := store.CandlesLatestStats(ctx, tf)
		if err != nil {
			errs++
			continue
		}
		rowsCount, err := store.CandlesRowCount(ctx, tf)
		if err != nil {
			errs++
			continue
		}
		stat := BuildMarketStat(tf, len(cfg.Universe), tickers, rowsCount, maxTS, now, cfg.StaleAfter)
		if err := store.InsertMarketStat(ctx, stat); err != nil {
			errs++
		}
	}

	if err := store.RebuildTechnicalIndicators(ctx, techRows); err != nil {
		errs++
	}

	var indicatorRows []database.IndicatorRow
	for _, ticker := range cfg.Universe {
		ctxRow, err := store.QuerySymbolContext(ctx, ticker)
		if err != nil || ctxRow == nil {
			continue
		}
		count := float64(ctxRow.ArticleCount7d)
		indicatorRows = append(indicatorRows, database.IndicatorRow{
			Ticker: ticker, Name: "article_count_7d", Value: &count,
		})
	}
	if err := store.RebuildIndicators(ctx, indicatorRows); err != nil {
		errs++
	}

	if err := store.RebuildFundamentalsSummary(ctx); err != nil {
		errs++
	}

	return Summary{
		TFsProcessed:        len(cfg.TFs),
		TechnicalIndicators: len(techRows),
		Indicators:          len(indicatorRows),
		Errors:              errs,
		Duration:            time.Since(start),
	}
}
