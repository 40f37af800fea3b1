package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// RebuildFundamentalsSummary performs a full delete-then-insert refresh of
// the fundamentals summary table from fi_latest, in one transaction so
// readers never observe a partially rebuilt table.
func (s *Store) RebuildFundamentalsSummary(ctx context.Context) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("RebuildFundamentalsSummary.begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM fundamentals`); err != nil {
		return classify("RebuildFundamentalsSummary.delete", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO fundamentals (ticker, period, statement, metric, value, computed_at)
		SELECT ticker, period, statement, metric, value, now() FROM fi_latest
	`); err != nil {
		return classify("RebuildFundamentalsSummary.insert", err)
	}
	return classify("RebuildFundamentalsSummary.commit", tx.Commit(ctx))
}

// RebuildTechnicalIndicators replaces the entire technical_indicators table
// with rows, delete-then-insert.
func (s *Store) RebuildTechnicalIndicators(ctx context.Context, rows []TechnicalIndicatorRow) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("RebuildTechnicalIndicators.begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM technical_indicators`); err != nil {
		return classify("RebuildTechnicalIndicators.delete", err)
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO technical_indicators (ticker, tf, indicator, value, computed_at)
			VALUES ($1,$2,$3,$4, now())
		`, r.Ticker, r.TF, r.Name, r.Value)
	}
	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return classify("RebuildTechnicalIndicators.insert", err)
		}
	}
	if err := br.Close(); err != nil {
		return classify("RebuildTechnicalIndicators.batch_close", err)
	}
	return classify("RebuildTechnicalIndicators.commit", tx.Commit(ctx))
}

// RebuildIndicators replaces the entire indicators table with rows,
// delete-then-insert.
func (s *Store) RebuildIndicators(ctx context.Context, rows []IndicatorRow) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("RebuildIndicators.begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM indicators`); err != nil {
		return classify("RebuildIndicators.delete", err)
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO indicators (ticker, name, value, computed_at)
			VALUES ($1,$2,$3, now())
		`, r.Ticker, r.Name, r.Value)
	}
	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return classify("RebuildIndicators.insert", err)
		}
	}
	if err := br.Close(); err != nil {
		return classify("RebuildIndicators.batch_close", err)
	}
	return classify("RebuildIndicators.commit", tx.Commit(ctx))
}

// InsertMarketStat deletes any prior KPI row for the same tf and inserts a
// fresh snapshot, so market_stats always holds exactly one current row per
// tf.
func (s *Store) InsertMarketStat(ctx context.Context, m MarketStatRow) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("InsertMarketStat.begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM market_stats WHERE tf = $1`, m.TF); err != nil {
		return classify("InsertMarketStat.delete", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO market_stats (
			tf, candles_eligible_total, candles_with_candles, candles_missing,
			candles_coverage_pct, rows_count, tickers_count, frontier_status, frontier_lag_ms, computed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
	`, m.TF, m.CandlesEligibleTotal, m.CandlesWithCandles, m.CandlesMissing,
		m.CandlesCoveragePct, m.RowsCount, m.TickersCount, m.FrontierStatus, m.FrontierLagMs); err != nil {
		return classify("InsertMarketStat.insert", err)
	}
	return classify("InsertMarketStat.commit", tx.Commit(ctx))
}
