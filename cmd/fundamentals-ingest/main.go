// Command fundamentals-ingest fetches and normalizes the per-ticker
// fundamentals block (financial statements + ratios), publishing changed
// blocks to the warehouse and the on-disk NDJSON log.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nkgotcode/vietmarket/internal/appconfig"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/fundamentals"
	"github.com/nkgotcode/vietmarket/internal/logging"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
)

func main() {
	log := logging.New("fundamentals-ingest")

	cfg := fundamentals.DefaultConfig()
	cfg.Tickers = appconfig.StrList("VNMARKET_TICKERS", nil)
	cfg.Period = fundamentals.Period(appconfig.Str("VNMARKET_FI_PERIOD", string(cfg.Period)))
	cfg.BaseURL = appconfig.Str("VNMARKET_FI_BASE_URL", "")
	cfg.Token = appconfig.Str("VNMARKET_FI_TOKEN", "")
	cfg.NoFallbackToQ = appconfig.Bool("VNMARKET_FI_NO_FALLBACK_TO_Q", false)
	cfg.OutDir = appconfig.Str("VNMARKET_FI_OUT_DIR", "./fundamentals")
	cfg.Concurrency = appconfig.Int("VNMARKET_CONCURRENCY", cfg.Concurrency)
	cfg.RunTimeout = time.Duration(appconfig.Int("VNMARKET_RUN_TIMEOUT_SEC", int(cfg.RunTimeout.Seconds()))) * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout+30*time.Second)
	defer cancel()

	dbCfg := database.DefaultConfig()
	dbCfg.DSN = appconfig.Str("VNMARKET_DATABASE_URL", "")
	store, err := database.Connect(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect warehouse")
	}
	defer store.Close()

	if len(cfg.Tickers) == 0 {
		symbols, err := store.QuerySymbols(ctx, true)
		if err != nil {
			log.Fatal().Err(err).Msg("load universe")
		}
		for _, sym := range symbols {
			cfg.Tickers = append(cfg.Tickers, sym.Ticker)
		}
	}

	client := sourceclient.New(sourceclient.DefaultConfig("fundamentals-source"))
	fetcher := &fundamentals.BlockFetcher{
		Client:  client,
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
	}

	summary := fundamentals.Run(ctx, cfg, store, fetcher)
	log.Info().
		Int("tickers_tried", summary.TickersTried).
		Int("blocks_changed", summary.BlocksChanged).
		Int("fallback_applied", summary.FallbackApplied).
		Int("errors", summary.Errors).
		Dur("duration", summary.Duration).
		Msg("fundamentals-ingest complete")

	if ctx.Err() != nil {
		os.Exit(124)
	}
	if summary.Errors > 0 {
		os.Exit(1)
	}
}
