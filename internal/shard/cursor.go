package shard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkgotcode/vietmarket/internal/apperr"
)

// Cursor is the persisted per-(job,shard) progress record.
type Cursor struct {
	NextIndex     int    `json:"next_index"`
	LastBatch     string `json:"last_batch"`
	BatchSize     int    `json:"batch_size"`
	UniverseCount int    `json:"universe_count"`
	UpdatedAt     int64  `json:"updated_at"`
}

// CursorStore reads and atomically persists a shard's cursor.
type CursorStore interface {
	Load(ctx context.Context, job string, shard int) (*Cursor, error)
	Save(ctx context.Context, job string, shard int, c Cursor) error
}

// FileCursorStore persists cursors as one JSON file per (job,shard) using
// write-temp-then-rename so a crash mid-write never corrupts the file.
type FileCursorStore struct {
	Dir string
}

func (f *FileCursorStore) path(job string, shard int) string {
	return filepath.Join(f.Dir, job+"_"+strconv.Itoa(shard)+".json")
}

func (f *FileCursorStore) Load(ctx context.Context, job string, shard int) (*Cursor, error) {
	data, err := os.ReadFile(f.path(job, shard))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.New(apperr.KindStorageTransient, "shard.FileCursorStore.Load", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperr.New(apperr.KindIntegrity, "shard.FileCursorStore.Load", err)
	}
	return &c, nil
}

func (f *FileCursorStore) Save(ctx context.Context, job string, shard int, c Cursor) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return apperr.New(apperr.KindStorageTransient, "shard.FileCursorStore.Save", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return apperr.New(apperr.KindIntegrity, "shard.FileCursorStore.Save", err)
	}
	final := f.path(job, shard)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.New(apperr.KindStorageTransient, "shard.FileCursorStore.Save", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return apperr.New(apperr.KindStorageTransient, "shard.FileCursorStore.Save", err)
	}
	return nil
}

// DBCursorStore persists cursors as rows in shard_cursors via UPSERT, so
// that the warehouse remains the authoritative source of truth when both
// file and warehouse state exist.
type DBCursorStore struct {
	Pool *pgxpool.Pool
}

func (d *DBCursorStore) Load(ctx context.Context, job string, shard int) (*Cursor, error) {
	var c Cursor
	row := d.Pool.QueryRow(ctx, `
		SELECT next_index, last_batch, batch_size, universe_count, updated_at
		FROM shard_cursors WHERE job=$1 AND shard=$2
	`, job, shard)
	var lastBatch *string
	err := row.Scan(&c.NextIndex, &lastBatch, &c.BatchSize, &c.UniverseCount, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.New(apperr.KindStorageTransient, "shard.DBCursorStore.Load", err)
	}
	if lastBatch != nil {
		c.LastBatch = *lastBatch
	}
	return &c, nil
}

func (d *DBCursorStore) Save(ctx context.Context, job string, shard int, c Cursor) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO shard_cursors (job, shard, next_index, last_batch, batch_size, universe_count, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (job, shard) DO UPDATE SET
			next_index = EXCLUDED.next_index,
			last_batch = EXCLUDED.last_batch,
			batch_size = EXCLUDED.batch_size,
			universe_count = EXCLUDED.universe_count,
			updated_at = EXCLUDED.updated_at
	`, job, shard, c.NextIndex, c.LastBatch, c.BatchSize, c.UniverseCount, c.UpdatedAt)
	if err != nil {
		return apperr.New(apperr.KindStorageTransient, "shard.DBCursorStore.Save", err)
	}
	return nil
}

// SelectBatch returns up to batchSize tickers from shardTickers starting at
// cursor.next_index, wrapping around the shard's own ticker list, and the
// advanced cursor to persist. If shardTickers is empty it returns an empty
// batch and a cursor with next_index reset to 0.
func SelectBatch(shardTickers []string, batchSize int, cur Cursor, now time.Time) ([]string, Cursor) {
	n := len(shardTickers)
	next := Cursor{
		BatchSize:     batchSize,
		UniverseCount: n,
		UpdatedAt:     now.UnixMilli(),
	}
	if n == 0 || batchSize <= 0 {
		next.NextIndex = 0
		return nil, next
	}

	start := cur.NextIndex % n
	if start < 0 {
		start += n
	}

	batch := make([]string, 0, batchSize)
	take := batchSize
	if take > n {
		take = n
	}
	for i := 0; i < take; i++ {
		batch = append(batch, shardTickers[(start+i)%n])
	}

	next.NextIndex = (start + take) % n
	next.LastBatch = batch[len(batch)-1]
	return batch, next
}
