package database

import (
	"context"
)

// UpsertFIPoint writes one normalized fundamentals observation, keyed by
// (ticker, period, statement, period_date, metric). Re-ingestion of the same
// period overwrites the value and fetched_at, matching the block-hash
// change-detection policy upstream in the fundamentals ingester.
func (s *Store) UpsertFIPoint(ctx context.Context, p FIPoint) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO fi_points (
			ticker, period, statement, period_date, period_date_name, metric, value, fetched_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (ticker, period, statement, period_date, metric) DO UPDATE SET
			period_date_name = EXCLUDED.period_date_name,
			value            = EXCLUDED.value,
			fetched_at       = EXCLUDED.fetched_at
	`, p.Ticker, p.Period, p.Statement, p.PeriodDate, p.PeriodDateName, p.Metric, p.Value, p.FetchedAt)
	return classify("UpsertFIPoint", err)
}

// ReplaceFILatest performs a full truncate-then-insert refresh of fi_latest
// for one ticker inside a single transaction, so concurrent readers never
// observe a partially replaced snapshot.
func (s *Store) ReplaceFILatest(ctx context.Context, ticker string, rows []FIPoint) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("ReplaceFILatest.begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM fi_latest WHERE ticker = $1`, ticker); err != nil {
		return classify("ReplaceFILatest.delete", err)
	}

	for _, p := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO fi_latest (
				ticker, period, statement, period_date, period_date_name, metric, value, fetched_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, p.Ticker, p.Period, p.Statement, p.PeriodDate, p.PeriodDateName, p.Metric, p.Value, p.FetchedAt); err != nil {
			return classify("ReplaceFILatest.insert", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("ReplaceFILatest.commit", err)
	}
	return nil
}

// QueryFILatest returns the current fi_latest snapshot for a ticker.
func (s *Store) QueryFILatest(ctx context.Context, ticker string) ([]FIPoint, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT ticker, period, statement, period_date, period_date_name, metric, value, fetched_at
		FROM fi_latest WHERE ticker = $1
		ORDER BY statement, period_date DESC, metric
	`, ticker)
	if err != nil {
		return nil, classify("QueryFILatest", err)
	}
	defer rows.Close()

	var out []FIPoint
	for rows.Next() {
		var p FIPoint
		if err := rows.Scan(&p.Ticker, &p.Period, &p.Statement, &p.PeriodDate, &p.PeriodDateName, &p.Metric, &p.Value, &p.FetchedAt); err != nil {
			return nil, classify("QueryFILatest.scan", err)
		}
		out = append(out, p)
	}
	return out, classify("QueryFILatest.rows", rows.Err())
}
