package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertCandles batch-upserts rows keyed on (ticker,tf,ts), replacing
// observable fields on conflict, and synchronously maintains
// candles_latest so that after the batch commits the snapshot equals the
// newest ts observed for each (ticker,tf) pair. The compare-then-write
// invariant is enforced by the WHERE clause on the snapshot's own ON
// CONFLICT update rather than a separate read.
func (s *Store) UpsertCandles(ctx context.Context, rows []Candle) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("UpsertCandles.begin", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO candles (ticker, tf, ts, o, h, l, c, v, source, ingested_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
			ON CONFLICT (ticker, tf, ts) DO UPDATE SET
				o = EXCLUDED.o, h = EXCLUDED.h, l = EXCLUDED.l, c = EXCLUDED.c,
				v = EXCLUDED.v, source = EXCLUDED.source, ingested_at = EXCLUDED.ingested_at
		`, r.Ticker, r.TF, r.TS, r.O, r.H, r.L, r.C, r.V, nullableStr(r.Source))

		batch.Queue(`
			INSERT INTO candles_latest (ticker, tf, ts, o, h, l, c, v, source, ingested_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
			ON CONFLICT (ticker, tf) DO UPDATE SET
				ts = EXCLUDED.ts, o = EXCLUDED.o, h = EXCLUDED.h, l = EXCLUDED.l, c = EXCLUDED.c,
				v = EXCLUDED.v, source = EXCLUDED.source, ingested_at = EXCLUDED.ingested_at
			WHERE candles_latest.ts <= EXCLUDED.ts
		`, r.Ticker, r.TF, r.TS, r.O, r.H, r.L, r.C, r.V, nullableStr(r.Source))
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return classify("UpsertCandles.exec", err)
		}
		if _, err := br.Exec(); err != nil {
			br.Close()
			return classify("UpsertCandles.exec_snapshot", err)
		}
	}
	if err := br.Close(); err != nil {
		return classify("UpsertCandles.batch_close", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("UpsertCandles.commit", err)
	}
	return nil
}

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// QueryCandles returns rows newest-first, strict < on beforeTS when
// beforeTS != nil, for keyset pagination.
func (s *Store) QueryCandles(ctx context.Context, ticker, tf string, beforeTS *int64, limit int) ([]Candle, error) {
	if limit < 1 || limit > 2000 {
		return nil, fmt.Errorf("limit out of range [1,2000]: %d", limit)
	}

	var rows pgx.Rows
	var err error
	if beforeTS != nil {
		rows, err = s.Pool.Query(ctx, `
			SELECT ticker, tf, ts, o, h, l, c, v, source, ingested_at
			FROM candles WHERE ticker=$1 AND tf=$2 AND ts < $3
			ORDER BY ts DESC LIMIT $4
		`, ticker, tf, *beforeTS, limit)
	} else {
		rows, err = s.Pool.Query(ctx, `
			SELECT ticker, tf, ts, o, h, l, c, v, source, ingested_at
			FROM candles WHERE ticker=$1 AND tf=$2
			ORDER BY ts DESC LIMIT $3
		`, ticker, tf, limit)
	}
	if err != nil {
		return nil, classify("QueryCandles", err)
	}
	defer rows.Close()

	var out []Candle
	for rows.Next() {
		var c Candle
		var source *string
		if err := rows.Scan(&c.Ticker, &c.TF, &c.TS, &c.O, &c.H, &c.L, &c.C, &c.V, &source, &c.IngestedAt); err != nil {
			return nil, classify("QueryCandles.scan", err)
		}
		if source != nil {
			c.Source = *source
		}
		out = append(out, c)
	}
	return out, classify("QueryCandles.rows", rows.Err())
}

// QueryLatest reads candles_latest filtered by tf.
func (s *Store) QueryLatest(ctx context.Context, tf string, limit int) ([]Candle, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT ticker, tf, ts, o, h, l, c, v, source, ingested_at
		FROM candles_latest WHERE tf=$1 ORDER BY ticker ASC LIMIT $2
	`, tf, limit)
	if err != nil {
		return nil, classify("QueryLatest", err)
	}
	defer rows.Close()

	var out []Candle
	for rows.Next() {
		var c Candle
		var source *string
		if err := rows.Scan(&c.Ticker, &c.TF, &c.TS, &c.O, &c.H, &c.L, &c.C, &c.V, &source, &c.IngestedAt); err != nil {
			return nil, classify("QueryLatest.scan", err)
		}
		if source != nil {
			c.Source = *source
		}
		out = append(out, c)
	}
	return out, classify("QueryLatest.rows", rows.Err())
}

// QueryTopMovers joins each snapshot row against its previous bar and
// orders by percentage change descending, nulls last.
// Percentage math uses shopspring/decimal to avoid float-drift on the
// financial ratio.
func (s *Store) QueryTopMovers(ctx context.Context, tf string, limit int) ([]TopMoverRow, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT l.ticker, l.tf, l.ts, l.c,
		       (SELECT p.c FROM candles p
		          WHERE p.ticker = l.ticker AND p.tf = l.tf AND p.ts < l.ts
		          ORDER BY p.ts DESC LIMIT 1) AS prev_close
		FROM candles_latest l
		WHERE l.tf = $1
	`, tf)
	if err != nil {
		return nil, classify("QueryTopMovers", err)
	}
	defer rows.Close()

	var out []TopMoverRow
	for rows.Next() {
		var r TopMoverRow
		var prev *float64
		if err := rows.Scan(&r.Ticker, &r.TF, &r.TSLatest, &r.CloseLatest, &prev); err != nil {
			return nil, classify("QueryTopMovers.scan", err)
		}
		r.ClosePrev = prev
		if prev != nil && *prev != 0 {
			pct := pctChange(r.CloseLatest, *prev)
			r.PctChange = &pct
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("QueryTopMovers.rows", err)
	}

	sortTopMovers(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CandlesLatestStats returns the number of distinct tickers with a
// candles_latest row for tf and the newest ts_ms among them, used by the
// derived-sync coverage/frontier KPIs.
func (s *Store) CandlesLatestStats(ctx context.Context, tf string) (tickers int, maxTS int64, err error) {
	var maxTSNullable *int64
	row := s.Pool.QueryRow(ctx, `
		SELECT count(*), max(ts) FROM candles_latest WHERE tf = $1
	`, tf)
	if err := row.Scan(&tickers, &maxTSNullable); err != nil {
		return 0, 0, classify("CandlesLatestStats", err)
	}
	if maxTSNullable != nil {
		maxTS = *maxTSNullable
	}
	return tickers, maxTS, nil
}

// QueryCandleTimestamps returns the sorted-ascending ts values present for
// (ticker,tf) within [fromMs,toMs], for the gap detector to diff against
// the expected bar grid.
func (s *Store) QueryCandleTimestamps(ctx context.Context, ticker, tf string, fromMs, toMs int64) ([]int64, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT ts FROM candles
		WHERE ticker=$1 AND tf=$2 AND ts BETWEEN $3 AND $4
		ORDER BY ts ASC
	`, ticker, tf, fromMs, toMs)
	if err != nil {
		return nil, classify("QueryCandleTimestamps", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, classify("QueryCandleTimestamps.scan", err)
		}
		out = append(out, ts)
	}
	return out, classify("QueryCandleTimestamps.rows", rows.Err())
}

// CandlesRowCount returns the total candles row count for tf.
func (s *Store) CandlesRowCount(ctx context.Context, tf string) (int64, error) {
	var n int64
	row := s.Pool.QueryRow(ctx, `SELECT count(*) FROM candles WHERE tf = $1`, tf)
	if err := row.Scan(&n); err != nil {
		return 0, classify("CandlesRowCount", err)
	}
	return n, nil
}
