package database

import (
	"context"

	"github.com/google/uuid"
)

// CountQueuedRepairs counts rows still awaiting a worker, surfaced by the
// query service's /v1/overall/health back-pressure indicator.
func (s *Store) CountQueuedRepairs(ctx context.Context) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM candle_repair_queue WHERE status = 'queued'`).Scan(&n)
	if err != nil {
		return 0, classify("CountQueuedRepairs", err)
	}
	return n, nil
}

// EnqueueRepairWindow upserts a candle_repair_queue row keyed on
// (ticker, tf, window_start_ts, window_end_ts). queued/running rows are
// refreshed (expected_bars, updated_at); done rows are left alone
//
func (s *Store) EnqueueRepairWindow(ctx context.Context, ticker, tf string, startMs, endMs int64, expectedBars int) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO candle_repair_queue (
			id, ticker, tf, window_start_ts, window_end_ts, expected_bars, status
		) VALUES ($1,$2,$3,$4,$5,$6,'queued')
		ON CONFLICT (ticker, tf, window_start_ts, window_end_ts) DO UPDATE SET
			expected_bars = EXCLUDED.expected_bars,
			updated_at = now()
		WHERE candle_repair_queue.status IN ('queued', 'running')
	`, uuid.NewString(), ticker, tf, startMs, endMs, expectedBars)
	return classify("EnqueueRepairWindow", err)
}

// DequeueRepairs claims up to limit queued repair rows in created_at order,
// marking them running, and returns them for the repair worker to process.
func (s *Store) DequeueRepairs(ctx context.Context, limit int) ([]RepairQueueEntry, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, classify("DequeueRepairs.begin", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, ticker, tf, window_start_ts, window_end_ts, expected_bars, note, status, attempts, last_error, created_at, updated_at
		FROM candle_repair_queue WHERE status = 'queued'
		ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, classify("DequeueRepairs.select", err)
	}

	var out []RepairQueueEntry
	var ids []string
	for rows.Next() {
		var e RepairQueueEntry
		if err := rows.Scan(&e.ID, &e.Ticker, &e.TF, &e.WindowStartTS, &e.WindowEndTS, &e.ExpectedBars, &e.Note, &e.Status, &e.Attempts, &e.LastError, &e.CreatedAt, &e.UpdatedAt); err != nil {
			rows.Close()
			return nil, classify("DequeueRepairs.scan", err)
		}
		out = append(out, e)
		ids = append(ids, e.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify("DequeueRepairs.rows", err)
	}
	if len(ids) == 0 {
		return nil, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE candle_repair_queue SET status = 'running', attempts = attempts + 1, updated_at = now()
		WHERE id = ANY($1)
	`, ids); err != nil {
		return nil, classify("DequeueRepairs.claim", err)
	}
	for i := range out {
		out[i].Status = RepairStatusRunning
		out[i].Attempts++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify("DequeueRepairs.commit", err)
	}
	return out, nil
}

// CompleteRepair marks a queue row done or error and writes a
// candle_repairs audit row.
func (s *Store) CompleteRepair(ctx context.Context, id, ticker, tf string, startMs, endMs int64, missingCount int, note *string, success bool, errMsg *string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return classify("CompleteRepair.begin", err)
	}
	defer tx.Rollback(ctx)

	status := RepairStatusDone
	if !success {
		status = RepairStatusError
	}
	if _, err := tx.Exec(ctx, `
		UPDATE candle_repair_queue SET status = $1, last_error = $2, updated_at = now() WHERE id = $3
	`, status, errMsg, id); err != nil {
		return classify("CompleteRepair.update", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO candle_repairs (id, ticker, tf, window_start_ts, window_end_ts, missing_count, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, uuid.NewString(), ticker, tf, startMs, endMs, missingCount, note); err != nil {
		return classify("CompleteRepair.audit", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("CompleteRepair.commit", err)
	}
	return nil
}
