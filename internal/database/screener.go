package database

import (
	"context"
	"fmt"
)

// ScreenerRow is one fi_latest row passing the caller's numeric bounds.
type ScreenerRow struct {
	Ticker string   `json:"ticker"`
	Value  *float64 `json:"value,omitempty"`
}

// QueryScreener filters fi_latest on a single numeric metric within
// [min,max] (either bound optional), ordered value DESC NULLS LAST
//.
func (s *Store) QueryScreener(ctx context.Context, metric, period, statement string, min, max *float64, limit int) ([]ScreenerRow, error) {
	args := []any{metric, period, statement}
	query := `
		SELECT ticker, value FROM fi_latest
		WHERE metric = $1 AND period = $2 AND statement = $3
	`
	if min != nil {
		args = append(args, *min)
		query += fmt.Sprintf(" AND value >= $%d", len(args))
	}
	if max != nil {
		args = append(args, *max)
		query += fmt.Sprintf(" AND value <= $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY value DESC NULLS LAST LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("QueryScreener", err)
	}
	defer rows.Close()

	var out []ScreenerRow
	for rows.Next() {
		var r ScreenerRow
		if err := rows.Scan(&r.Ticker, &r.Value); err != nil {
			return nil, classify("QueryScreener.scan", err)
		}
		out = append(out, r)
	}
	return out, classify("QueryScreener.rows", rows.Err())
}
