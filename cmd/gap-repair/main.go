// Command gap-repair drains candle_repair_queue: for each claimed window it
// re-fetches the missing bars from the upstream history source, upserts
// whatever comes back, and records a candle_repairs audit row.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nkgotcode/vietmarket/internal/appconfig"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/ingestcandle"
	"github.com/nkgotcode/vietmarket/internal/logging"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
)

func main() {
	log := logging.New("gap-repair")

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

	client := sourceclient.New(sourceclient.DefaultConfig("candle-history"))
	source := &ingestcandle.HTTPCandleSource{
		Client:  client,
		BaseURL: appconfig.Str("VNMARKET_CANDLE_SOURCE_URL", ""),
		APIKey:  appconfig.Str("VNMARKET_CANDLE_SOURCE_KEY", ""),
	}

	limit := appconfig.Int("VNMARKET_REPAIR_BATCH_SIZE", 100)
	entries, err := store.DequeueRepairs(ctx, limit)
	if err != nil {
		log.Fatal().Err(err).Msg("dequeue repair windows")
	}
	if len(entries) == 0 {
		log.Info().Msg("no queued repair windows")
		return
	}

	var errs, repaired int
	for _, e := range entries {
		select {
		case <-ctx.Done():
			log.Warn().Msg("run timeout reached mid-repair")
			os.Exit(124)
		default:
		}

		page, err := source.FetchPage(ctx, e.Ticker, ingestcandle.TF(e.TF), e.WindowStartTS, e.ExpectedBars+10)
		if err != nil {
			errMsg := err.Error()
			_ = store.CompleteRepair(ctx, e.ID, e.Ticker, e.TF, e.WindowStartTS, e.WindowEndTS, e.ExpectedBars, nil, false, &errMsg)
			errs++
			continue
		}

		var inWindow []database.Candle
		for _, row := range page.Rows {
			if row.TS >= e.WindowStartTS && row.TS <= e.WindowEndTS {
				inWindow = append(inWindow, row)
			}
		}
		if len(inWindow) > 0 {
			if err := store.UpsertCandles(ctx, inWindow); err != nil {
				errMsg := err.Error()
				_ = store.CompleteRepair(ctx, e.ID, e.Ticker, e.TF, e.WindowStartTS, e.WindowEndTS, e.ExpectedBars, nil, false, &errMsg)
				errs++
				continue
			}
		}

		missing := e.ExpectedBars - len(inWindow)
		if missing < 0 {
			missing = 0
		}
		if err := store.CompleteRepair(ctx, e.ID, e.Ticker, e.TF, e.WindowStartTS, e.WindowEndTS, missing, nil, true, nil); err != nil {
			errs++
			continue
		}
		repaired++
	}

	log.Info().
		Int("windows_claimed", len(entries)).
		Int("windows_repaired", repaired).
		Int("errors", errs).
		Msg("gap-repair complete")

	if errs > 0 {
		os.Exit(1)
	}
}
