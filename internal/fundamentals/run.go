package fundamentals

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/canonjson"
	"github.com/nkgotcode/vietmarket/internal/database"
)

// Summary is the outcome of one fundamentals-ingest run, surfaced to the
// cmd/fundamentals-ingest exit-code mapping.
type Summary struct {
	TickersTried    int
	BlocksChanged   int
	FallbackApplied int
	Errors          int
	Duration        time.Duration
}

// Run fetches, hashes, and conditionally normalizes a fundamentals block
// for every configured ticker, then republishes the aggregate cache
//. It never aborts the whole run on a single ticker's
// failure; each failure is counted in Summary.Errors.
func Run(ctx context.Context, cfg Config, store *database.Store, fetcher *BlockFetcher) Summary {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	var blocksChanged, fallbackApplied, errs atomic.Int64
	var stMu sync.Mutex

	st, err := LoadState(cfg.OutDir)
	if err != nil {
		return Summary{Errors: 1, Duration: time.Since(start)}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for _, ticker := range cfg.Tickers {
		ticker := ticker
		g.Go(func() error {
			changed, fellBack, err := ingestOne(gctx, cfg, store, fetcher, st, &stMu, ticker)
			if err != nil {
				errs.Add(1)
				return nil
			}
			if changed {
				blocksChanged.Add(1)
			}
			if fellBack {
				fallbackApplied.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := SaveState(cfg.OutDir, st); err != nil {
		errs.Add(1)
	}
	if err := Publish(cfg.OutDir); err != nil {
		errs.Add(1)
	}

	return Summary{
		TickersTried:    len(cfg.Tickers),
		BlocksChanged:   int(blocksChanged.Load()),
		FallbackApplied: int(fallbackApplied.Load()),
		Errors:          int(errs.Load()),
		Duration:        time.Since(start),
	}
}

// ingestOne runs the per-ticker block/hash/normalize pipeline. st.Hashes is
// shared across concurrently running tickers, so every read/write of it
// goes through stMu.
func ingestOne(ctx context.Context, cfg Config, store *database.Store, fetcher *BlockFetcher, st *State, stMu *sync.Mutex, ticker string) (changed bool, fellBack bool, err error) {
	period, fellBack := cfg.EffectivePeriod()

	block, fetchErrs := fetcher.FetchBlock(ctx, ticker, period)
	if len(block) == 0 && len(fetchErrs) > 0 {
		return false, fellBack, apperr.New(apperr.KindSourceTransient, "fundamentals.ingestOne", fetchErrs[0])
	}

	raw, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return false, fellBack, apperr.New(apperr.KindIntegrity, "fundamentals.ingestOne", err)
	}
	if err := writeAtomic(rawLatestPath(cfg.OutDir, ticker, period), raw); err != nil {
		return false, fellBack, err
	}

	hash, err := canonjson.Hash(block)
	if err != nil {
		return false, fellBack, apperr.New(apperr.KindIntegrity, "fundamentals.ingestOne", err)
	}

	key := stateKey(ticker, period)
	stMu.Lock()
	unchanged := st.Hashes[key] == hash
	stMu.Unlock()
	if unchanged {
		return false, fellBack, nil
	}

	now := time.Now()
	if err := writeAtomic(rawSnapshotPath(cfg.OutDir, ticker, period, now), raw); err != nil {
		return false, fellBack, err
	}

	rows := NormalizeBlock(ticker, period, block, now)

	ndjsonLines := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		line, err := json.Marshal(r)
		if err != nil {
			continue
		}
		ndjsonLines = append(ndjsonLines, line)
	}
	if err := appendNDJSON(normalizedLogPath(cfg.OutDir, ticker, period), ndjsonLines); err != nil {
		return false, fellBack, err
	}

	for _, row := range rows {
		if err := store.UpsertFIPoint(ctx, row); err != nil {
			return false, fellBack, err
		}
	}
	if err := store.ReplaceFILatest(ctx, ticker, rows); err != nil {
		return false, fellBack, err
	}

	stMu.Lock()
	st.Hashes[key] = hash
	stMu.Unlock()
	return true, fellBack, nil
}
