package database

import (
	"context"
	"fmt"
	"time"
)

// UpsertCorporateAction inserts or updates a corporate action row by id.
// Re-ingestion of the same id (source, ticker, ex_date, event_type tuple
// hashed upstream) refreshes the mutable descriptive fields only.
func (s *Store) UpsertCorporateAction(ctx context.Context, a CorporateAction) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO corporate_actions (
			id, ticker, exchange, ex_date, record_date, pay_date,
			event_type, headline, source, source_url, ingested_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now())
		ON CONFLICT (id) DO UPDATE SET
			exchange    = EXCLUDED.exchange,
			record_date = EXCLUDED.record_date,
			pay_date    = EXCLUDED.pay_date,
			headline    = EXCLUDED.headline,
			source_url  = EXCLUDED.source_url
	`, a.ID, a.Ticker, a.Exchange, a.ExDate, a.RecordDate, a.PayDate,
		a.EventType, a.Headline, a.Source, a.SourceURL)
	return classify("UpsertCorporateAction", err)
}

// QueryCorporateActionsLatest returns the newest actions across all tickers,
// keyset-paginated on (ex_date DESC, id DESC).
func (s *Store) QueryCorporateActionsLatest(ctx context.Context, limit int, beforeExDate *time.Time, beforeID *string) ([]CorporateAction, error) {
	return s.queryCorporateActions(ctx, "", limit, beforeExDate, beforeID)
}

// QueryCorporateActionsByTicker restricts the latest-actions query to one
// ticker, same keyset shape.
func (s *Store) QueryCorporateActionsByTicker(ctx context.Context, ticker string, limit int, beforeExDate *time.Time, beforeID *string) ([]CorporateAction, error) {
	return s.queryCorporateActions(ctx, ticker, limit, beforeExDate, beforeID)
}

func (s *Store) queryCorporateActions(ctx context.Context, ticker string, limit int, beforeExDate *time.Time, beforeID *string) ([]CorporateAction, error) {
	query := `
		SELECT id, ticker, exchange, ex_date, record_date, pay_date,
		       event_type, headline, source, source_url, ingested_at
		FROM corporate_actions WHERE 1=1
	`
	args := []any{}
	if ticker != "" {
		args = append(args, ticker)
		query += fmt.Sprintf(" AND ticker = $%d", len(args))
	}
	if beforeExDate != nil && beforeID != nil {
		args = append(args, *beforeExDate, *beforeID)
		query += fmt.Sprintf(" AND (ex_date, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY ex_date DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("queryCorporateActions", err)
	}
	defer rows.Close()

	var out []CorporateAction
	for rows.Next() {
		var a CorporateAction
		if err := rows.Scan(&a.ID, &a.Ticker, &a.Exchange, &a.ExDate, &a.RecordDate, &a.PayDate,
			&a.EventType, &a.Headline, &a.Source, &a.SourceURL, &a.IngestedAt); err != nil {
			return nil, classify("queryCorporateActions.scan", err)
		}
		out = append(out, a)
	}
	return out, classify("queryCorporateActions.rows", rows.Err())
}
