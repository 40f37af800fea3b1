// Command gap-detect scans candle coverage against the expected trading
// calendar grid for each ticker×tf and enqueues contiguous missing windows
// onto candle_repair_queue for gap-repair to drain.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nkgotcode/vietmarket/internal/appconfig"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/logging"
	"github.com/nkgotcode/vietmarket/internal/repair"
	"github.com/nkgotcode/vietmarket/internal/tradingcalendar"
)

var tfMinutes = map[string]int{
	"1d":  0,
	"1h":  60,
	"15m": 15,
}

func main() {
	log := logging.New("gap-detect")

	runTimeout := time.Duration(appconfig.Int("VNMARKET_RUN_TIMEOUT_SEC", 180)) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	dbCfg := database.DefaultConfig()
	dbCfg.DSN = appconfig.Str("VNMARKET_DATABASE_URL", "")
	store, err := database.Connect(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect warehouse")
	}
	defer store.Close()

	calPaths := appconfig.StrList("VNMARKET_CALENDAR_FILES", nil)
	if len(calPaths) == 0 {
		log.Fatal().Msg("VNMARKET_CALENDAR_FILES is required")
	}
	cal, err := tradingcalendar.Load(calPaths...)
	if err != nil {
		log.Fatal().Err(err).Msg("load trading calendar")
	}

	universe := appconfig.StrList("VNMARKET_TICKERS", nil)
	if len(universe) == 0 {
		symbols, err := store.QuerySymbols(ctx, true)
		if err != nil {
			log.Fatal().Err(err).Msg("load universe")
		}
		for _, sym := range symbols {
			universe = append(universe, sym.Ticker)
		}
	}

	tfs := appconfig.StrList("VNMARKET_TFS", []string{"1d"})
	lookbackDays := appconfig.Int("VNMARKET_LOOKBACK_DAYS", 30)

	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)
	fromMs, toMs := from.UnixMilli(), to.UnixMilli()

	var errs int
	var windowsFound int
	for _, tf := range tfs {
		minutes, ok := tfMinutes[tf]
		if !ok {
			log.Warn().Str("tf", tf).Msg("unknown tf, skipping")
			continue
		}
		for _, ticker := range universe {
			select {
			case <-ctx.Done():
				log.Warn().Msg("run timeout reached mid-scan")
				os.Exit(124)
			default:
			}

			existing, err := store.QueryCandleTimestamps(ctx, ticker, tf, fromMs, toMs)
			if err != nil {
				errs++
				continue
			}
			windows := repair.DetectGaps(cal, fromMs, toMs, minutes, existing)
			if len(windows) == 0 {
				continue
			}
			if err := repair.EnqueueGaps(ctx, store, ticker, tf, windows); err != nil {
				errs++
				continue
			}
			windowsFound += len(windows)
		}
	}

	log.Info().
		Int("windows_enqueued", windowsFound).
		Int("errors", errs).
		Msg("gap-detect complete")

	if errs > 0 {
		os.Exit(1)
	}
}
