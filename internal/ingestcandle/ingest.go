package ingestcandle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/lease"
	"github.com/nkgotcode/vietmarket/internal/logging"
	"github.com/nkgotcode/vietmarket/internal/shard"
)

// Summary is the structured per-run result logged at exit.
type Summary struct {
	Status        string // "done", "skipped", "error", "timeout"
	TickersTried  int
	PagesFetched  int
	RowsUpserted  int
	FrontierHits  int
	Errors        int
	Duration      time.Duration
}

// frontierState tracks, per (ticker,tf), whether the newest observed
// timestamp has stopped advancing across consecutive fetches.
type frontierState struct {
	lastNewest    int64
	stalePageHits int
}

const frontierStaleThreshold = 2

// observeFrontier updates fr with one page's result and reports whether
// iteration for this (ticker,tf) should stop: either the page was short
// (no more bars available) or the newest timestamp has failed to advance
// for frontierStaleThreshold consecutive pages.
func observeFrontier(fr *frontierState, newestTS int64, hasMore bool) bool {
	if newestTS <= fr.lastNewest {
		fr.stalePageHits++
	} else {
		fr.stalePageHits = 0
		fr.lastNewest = newestTS
	}
	return fr.stalePageHits >= frontierStaleThreshold || !hasMore
}

// runStats collects counters safely across the concurrent ticker×tf
// fan-out; copied into the final Summary once the batch completes.
type runStats struct {
	pagesFetched atomic.Int64
	rowsUpserted atomic.Int64
	frontierHits atomic.Int64
	errors       atomic.Int64

	frontiersMu sync.Mutex
	frontiers   map[string]*frontierState
}

func newRunStats() *runStats {
	return &runStats{frontiers: map[string]*frontierState{}}
}

func (s *runStats) frontierFor(key string) *frontierState {
	s.frontiersMu.Lock()
	defer s.frontiersMu.Unlock()
	fr, ok := s.frontiers[key]
	if !ok {
		fr = &frontierState{}
		s.frontiers[key] = fr
	}
	return fr
}

// Run executes one full ingestion run: claim, batch, fetch/upsert per
// ticker×tf, advance cursor, exit. It never blocks past cfg.RunTimeoutSec;
// callers that need the hard exit-124 behavior should race Run against
// their own timer in cmd/candle-ingest and exit 124 if Run's context
// expires first.
func Run(ctx context.Context, cfg Config, store *database.Store, leaseStore *lease.Store, cursorStore shard.CursorStore, universe []string, source CandleSource) Summary {
	start := time.Now()
	log := logging.New("candle-ingest")

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RunTimeoutSec)*time.Second)
	defer cancel()

	now := time.Now()
	claim, err := leaseStore.TryClaim(runCtx, cfg.JobName, cfg.ShardIndex, cfg.NodeID, cfg.LeaseMs, cfg.StaleMinutes, nil, now)
	if err != nil {
		log.Error().Err(err).Str("skipped", "lease_error").Msg("lease coordinator unreachable, exiting without writes")
		return Summary{Status: "skipped", Duration: time.Since(start)}
	}
	if !claim.OK {
		log.Info().Str("owner", claim.OwnerID).Msg("shard already owned, skipping")
		return Summary{Status: "skipped", Duration: time.Since(start)}
	}

	shardTickers := shard.TickersForShard(universe, cfg.ShardIndex, cfg.ShardCount)

	cur, err := cursorStore.Load(runCtx, cfg.JobName, cfg.ShardIndex)
	if err != nil {
		log.Error().Err(err).Msg("cursor load failed")
		return Summary{Status: "error", Duration: time.Since(start)}
	}
	if cur == nil {
		cur = &shard.Cursor{}
	}

	batch, nextCur := shard.SelectBatch(shardTickers, cfg.BatchSize, *cur, now)

	stats := newRunStats()
	summary := Summary{TickersTried: len(batch)}

	lastProgress := time.Now()
	heartbeat := time.Duration(cfg.HeartbeatSec) * time.Second

	lastCompletedIdx := -1

tickerLoop:
	for idx, ticker := range batch {
		select {
		case <-runCtx.Done():
			break tickerLoop
		default:
		}

		g, gctx := errgroup.WithContext(runCtx)
		g.SetLimit(cfg.Concurrency)

		for _, tf := range cfg.TFs {
			ticker, tf := ticker, tf
			g.Go(func() error {
				return ingestOne(gctx, cfg, store, source, ticker, tf, stats)
			})
		}

		if err := g.Wait(); err != nil {
			stats.errors.Add(1)
			log.Warn().Err(err).Str("ticker", ticker).Msg("ticker ingestion had errors")
		}

		lastCompletedIdx = idx

		if time.Since(lastProgress) >= heartbeat {
			if ok, err := leaseStore.ReportProgress(runCtx, cfg.JobName, cfg.ShardIndex, cfg.NodeID, nil, time.Now()); err != nil || !ok {
				log.Error().Err(err).Msg("lost lease ownership mid-run, abandoning shard")
				return Summary{Status: "error", Duration: time.Since(start)}
			}
			lastProgress = time.Now()
		}
	}

	status := "done"
	if lastCompletedIdx < len(batch)-1 {
		status = "timeout"
		// Only advance the cursor to the last completed ticker's position,
		// not the full batch, so an interrupted run resumes correctly.
		completed := lastCompletedIdx + 1
		partialCur := *cur
		if completed > 0 {
			_, nextCur = shard.SelectBatch(shardTickers, completed, partialCur, now)
		} else {
			nextCur = partialCur
		}
	}

	if err := cursorStore.Save(runCtx, cfg.JobName, cfg.ShardIndex, nextCur); err != nil {
		log.Error().Err(err).Msg("cursor save failed")
		summary.Status = "error"
		summary.Duration = time.Since(start)
		return summary
	}

	summary.Status = status
	summary.Duration = time.Since(start)
	summary.PagesFetched = int(stats.pagesFetched.Load())
	summary.RowsUpserted = int(stats.rowsUpserted.Load())
	summary.FrontierHits = int(stats.frontierHits.Load())
	summary.Errors = int(stats.errors.Load())
	log.Info().
		Str("status", summary.Status).
		Int("tickers", summary.TickersTried).
		Int("pages", summary.PagesFetched).
		Int("rows", summary.RowsUpserted).
		Int("frontier_hits", summary.FrontierHits).
		Dur("duration", summary.Duration).
		Msg("candle ingest run complete")
	return summary
}

func ingestOne(ctx context.Context, cfg Config, store *database.Store, source CandleSource, ticker string, tf TF, stats *runStats) error {
	fr := stats.frontierFor(ticker + "|" + string(tf))

	from := cfg.StartByTF[tf].UnixMilli()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		page, err := source.FetchPage(ctx, ticker, tf, from, cfg.Chunk)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindSourceTerminal {
				return nil
			}
			return err
		}
		stats.pagesFetched.Add(1)

		if len(page.Rows) > 0 {
			if err := store.UpsertCandles(ctx, page.Rows); err != nil {
				return err
			}
			stats.rowsUpserted.Add(int64(len(page.Rows)))
		}

		reachedFrontier := observeFrontier(fr, page.NewestTS, page.HasMore)
		if reachedFrontier {
			if fr.stalePageHits >= frontierStaleThreshold {
				stats.frontierHits.Add(1)
			}
			return nil
		}

		from = page.NewestTS + 1

		if cfg.SleepMs > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(cfg.SleepMs) * time.Millisecond):
			}
		}
	}
}
