// Command candle-ingest runs one shard's scheduled OHLCV ingestion pass:
// claim the (job,shard) lease, select a batch from the cursor, fetch and
// upsert candles per ticker×tf, advance the cursor, and exit.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nkgotcode/vietmarket/internal/appconfig"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/ingestcandle"
	"github.com/nkgotcode/vietmarket/internal/lease"
	"github.com/nkgotcode/vietmarket/internal/logging"
	"github.com/nkgotcode/vietmarket/internal/shard"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
)

func main() {
	log := logging.New("candle-ingest")

	cfg := ingestcandle.DefaultConfig()
	cfg.JobName = appconfig.Str("VNMARKET_JOB_NAME", "candle-ingest")
	cfg.NodeID = appconfig.Str("VNMARKET_NODE_ID", hostnameOrDefault())
	cfg.ShardCount = appconfig.Int("VNMARKET_SHARD_COUNT", 1)
	cfg.ShardIndex = appconfig.Int("VNMARKET_SHARD_INDEX", 0)
	cfg.BatchSize = appconfig.Int("VNMARKET_BATCH_SIZE", cfg.BatchSize)
	cfg.Chunk = appconfig.Int("VNMARKET_CHUNK", cfg.Chunk)
	cfg.RunTimeoutSec = appconfig.Int("VNMARKET_RUN_TIMEOUT_SEC", cfg.RunTimeoutSec)
	cfg.StaleMinutes = appconfig.Int("VNMARKET_STALE_MINUTES", cfg.StaleMinutes)
	cfg.LeaseMs = int64(appconfig.Int("VNMARKET_LEASE_MS", int(cfg.LeaseMs)))
	cfg.SleepMs = appconfig.Int("VNMARKET_SLEEP_MS", cfg.SleepMs)
	cfg.HeartbeatSec = appconfig.Int("VNMARKET_HEARTBEAT_SEC", cfg.HeartbeatSec)
	cfg.Concurrency = appconfig.Int("VNMARKET_CONCURRENCY", cfg.Concurrency)
	cfg.CursorDir = appconfig.Str("VNMARKET_CURSOR_DIR", "./cursors")
	cfg.UniverseFile = appconfig.Str("VNMARKET_UNIVERSE_FILE", "")

	cfg.TFs = nil
	for _, tf := range appconfig.StrList("VNMARKET_TFS", []string{"1d"}) {
		cfg.TFs = append(cfg.TFs, ingestcandle.TF(tf))
	}
	cfg.StartByTF = map[ingestcandle.TF]time.Time{}
	defaultStart := time.Now().AddDate(-2, 0, 0)
	for _, tf := range cfg.TFs {
		cfg.StartByTF[tf] = defaultStart
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RunTimeoutSec+30)*time.Second)
	defer cancel()

	dbCfg := database.DefaultConfig()
	dbCfg.DSN = appconfig.Str("VNMARKET_DATABASE_URL", "")
	store, err := database.Connect(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect warehouse")
	}
	defer store.Close()

	var universe []string
	if cfg.UniverseFile != "" {
		universe, err = shard.LoadUniverseFromFile(cfg.UniverseFile)
		if err != nil {
			log.Fatal().Err(err).Msg("load universe file")
		}
	} else {
		symbols, err := store.QuerySymbols(ctx, true)
		if err != nil {
			log.Fatal().Err(err).Msg("load universe from warehouse")
		}
		raw := make([]string, 0, len(symbols))
		for _, sym := range symbols {
			raw = append(raw, sym.Ticker)
		}
		universe, err = shard.LoadUniverseFromWarehouse(ctx, raw)
		if err != nil {
			log.Fatal().Err(err).Msg("normalize universe")
		}
	}

	leaseStore := lease.New(store.Pool)
	cursorStore := &shard.FileCursorStore{Dir: cfg.CursorDir}

	client := sourceclient.New(sourceclient.DefaultConfig("candle-history"))
	source := &ingestcandle.HTTPCandleSource{
		Client:  client,
		BaseURL: appconfig.Str("VNMARKET_CANDLE_SOURCE_URL", ""),
		APIKey:  appconfig.Str("VNMARKET_CANDLE_SOURCE_KEY", ""),
	}

	summary := ingestcandle.Run(ctx, cfg, store, leaseStore, cursorStore, universe, source)

	switch summary.Status {
	case "timeout":
		os.Exit(124)
	case "error":
		os.Exit(1)
	}
}

func hostnameOrDefault() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "candle-ingest-node"
	}
	return h
}
