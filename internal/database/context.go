package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// SymbolContext is one symbol_context_latest row: a lightweight rollup of
// recent article coverage and candle freshness, recomputed in full on each
// run rather than patched incrementally.
type SymbolContext struct {
	Ticker         string     `json:"ticker"`
	ArticleCount7d int        `json:"article_count_7d"`
	LastArticleAt  *time.Time `json:"last_article_at,omitempty"`
	LastCandleTS   *int64     `json:"last_candle_ts,omitempty"`
	ComputedAt     time.Time  `json:"computed_at"`
}

// UpsertSymbol creates a symbol on first sighting from any ingester, or
// refreshes its mutable fields on conflict.
func (s *Store) UpsertSymbol(ctx context.Context, sym Symbol) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO symbols (ticker, name, exchange, active, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (ticker) DO UPDATE SET
			name       = COALESCE(EXCLUDED.name, symbols.name),
			exchange   = COALESCE(EXCLUDED.exchange, symbols.exchange),
			active     = COALESCE(EXCLUDED.active, symbols.active),
			updated_at = COALESCE(EXCLUDED.updated_at, symbols.updated_at)
	`, sym.Ticker, sym.Name, sym.Exchange, sym.Active, sym.UpdatedAt)
	return classify("UpsertSymbol", err)
}

// QuerySymbols returns every known symbol, used by the cmd/ workers to load
// their ticker universe from the warehouse.
func (s *Store) QuerySymbols(ctx context.Context, activeOnly bool) ([]Symbol, error) {
	query := `SELECT ticker, name, exchange, active, updated_at FROM symbols`
	if activeOnly {
		query += ` WHERE active IS DISTINCT FROM false`
	}
	query += ` ORDER BY ticker ASC`

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, classify("QuerySymbols", err)
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.Ticker, &sym.Name, &sym.Exchange, &sym.Active, &sym.UpdatedAt); err != nil {
			return nil, classify("QuerySymbols.scan", err)
		}
		out = append(out, sym)
	}
	return out, classify("QuerySymbols.rows", rows.Err())
}

// RebuildContextLatest recomputes symbol_context_latest for every ticker
// that owns either a candle or an article, replacing the table contents
// inside one transaction (full-refresh, never incremental patch, matching
// ReplaceFILatest's discipline).
func (s *Store) RebuildContextLatest(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-7 * 24 * time.Hour)

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("RebuildContextLatest.begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM symbol_context_latest`); err != nil {
		return classify("RebuildContextLatest.delete", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO symbol_context_latest (ticker, article_count_7d, last_article_at, last_candle_ts, computed_at)
		SELECT
			t.ticker,
			COALESCE(ac.article_count_7d, 0),
			ac.last_article_at,
			cc.last_candle_ts,
			$1
		FROM (
			SELECT ticker FROM candles_latest
			UNION
			SELECT ticker FROM article_symbols
		) t
		LEFT JOIN (
			SELECT s.ticker,
			       count(*) FILTER (WHERE a.published_at >= $2) AS article_count_7d,
			       max(a.published_at) AS last_article_at
			FROM article_symbols s
			JOIN articles a ON a.url = s.article_url
			WHERE a.fetch_status = 'fetched'
			GROUP BY s.ticker
		) ac ON ac.ticker = t.ticker
		LEFT JOIN (
			SELECT ticker, max(ts) AS last_candle_ts
			FROM candles_latest
			GROUP BY ticker
		) cc ON cc.ticker = t.ticker
	`, now, cutoff)
	if err != nil {
		return classify("RebuildContextLatest.insert", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("RebuildContextLatest.commit", err)
	}
	return nil
}

// QuerySymbolContext reads the current rollup for one ticker, or nil when
// the ticker has no row.
func (s *Store) QuerySymbolContext(ctx context.Context, ticker string) (*SymbolContext, error) {
	var c SymbolContext
	err := s.Pool.QueryRow(ctx, `
		SELECT ticker, article_count_7d, last_article_at, last_candle_ts, computed_at
		FROM symbol_context_latest WHERE ticker = $1
	`, ticker).Scan(&c.Ticker, &c.ArticleCount7d, &c.LastArticleAt, &c.LastCandleTS, &c.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("QuerySymbolContext", err)
	}
	return &c, nil
}
