// Command derived-sync periodically rebuilds the summary tables
// (fundamentals, technical_indicators, indicators, market_stats) from raw
// ingest outputs.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nkgotcode/vietmarket/internal/appconfig"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/derived"
	"github.com/nkgotcode/vietmarket/internal/logging"
)

func main() {
	log := logging.New("derived-sync")

	runTimeout := time.Duration(appconfig.Int("VNMARKET_RUN_TIMEOUT_SEC", 120)) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	dbCfg := database.DefaultConfig()
	dbCfg.DSN = appconfig.Str("VNMARKET_DATABASE_URL", "")

	store, err := database.Connect(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect warehouse")
	}
	defer store.Close()

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

	cfg := derived.DefaultConfig()
	cfg.Universe = universe
	if tfs := appconfig.StrList("VNMARKET_TFS", nil); len(tfs) > 0 {
		cfg.TFs = tfs
	}
	cfg.SMAWindow = appconfig.Int("VNMARKET_SMA_WINDOW", cfg.SMAWindow)

	summary := derived.Run(ctx, cfg, store, time.Now())
	log.Info().
		Int("tfs_processed", summary.TFsProcessed).
		Int("technical_indicators", summary.TechnicalIndicators).
		Int("indicators", summary.Indicators).
		Int("errors", summary.Errors).
		Dur("duration", summary.Duration).
		Msg("derived-sync complete")

	if ctx.Err() != nil {
		os.Exit(124)
	}
	if summary.Errors > 0 {
		os.Exit(1)
	}
}
