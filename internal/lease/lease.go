// Package lease implements weak leader election per (job, shard) backed by
// the warehouse leases table: a row-level claim with optimistic
// compare-and-swap semantics rather than an external lock service.
package lease

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkgotcode/vietmarket/internal/apperr"
)

const (
	MinLeaseMs = 30_000
	MaxLeaseMs = 1_800_000
)

// Store wraps the pool used to read/write the leases table.
type Store struct {
	Pool *pgxpool.Pool
}

// New returns a Store over an already-connected pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Row is the caller-facing lease state.
type Row struct {
	Job            string
	Shard          int
	OwnerID        string
	LeaseUntilMs   int64
	LastProgressMs int64
	Meta           *string
	UpdatedAt      int64
}

// ClaimResult is returned by TryClaim.
type ClaimResult struct {
	OK             bool
	OwnerID        string
	LeaseUntilMs   int64
	LastProgressMs int64
}

func nowMs(now time.Time) int64 {
	return now.UnixMilli()
}

// TryClaim attempts to acquire (job, shard) for ownerID. Claim succeeds iff
// the row is absent, its lease has expired (lease_until_ms <= now), or its
// owner has gone stale (last_progress_ms < now - stale_minutes*60000).
// now=lease_until_ms IS claimable: a lease refuses other owners only while
// lease_until_ms > now (strict less-than for not-claimable).
func (s *Store) TryClaim(ctx context.Context, job string, shard int, ownerID string, leaseMs int64, staleMinutes int, meta *string, now time.Time) (ClaimResult, error) {
	if leaseMs < MinLeaseMs || leaseMs > MaxLeaseMs {
		return ClaimResult{}, apperr.New(apperr.KindValidation, "lease.TryClaim", errInvalidLeaseMs)
	}
	if staleMinutes < 1 {
		return ClaimResult{}, apperr.New(apperr.KindValidation, "lease.TryClaim", errInvalidStaleMinutes)
	}

	nowI := nowMs(now)
	staleWindowMs := int64(staleMinutes) * 60_000

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return ClaimResult{}, apperr.New(apperr.KindCoordination, "lease.TryClaim.begin", err)
	}
	defer tx.Rollback(ctx)

	var existing Row
	var has bool
	row := tx.QueryRow(ctx, `
		SELECT job, shard, owner_id, lease_until_ms, last_progress_ms, meta, updated_at
		FROM leases WHERE job=$1 AND shard=$2 FOR UPDATE
	`, job, shard)
	switch err := row.Scan(&existing.Job, &existing.Shard, &existing.OwnerID, &existing.LeaseUntilMs, &existing.LastProgressMs, &existing.Meta, &existing.UpdatedAt); err {
	case nil:
		has = true
	case pgx.ErrNoRows:
		has = false
	default:
		return ClaimResult{}, apperr.New(apperr.KindCoordination, "lease.TryClaim.read", err)
	}

	claimable := !has || existing.LeaseUntilMs <= nowI || existing.LastProgressMs < nowI-staleWindowMs
	if !claimable {
		if err := tx.Commit(ctx); err != nil {
			return ClaimResult{}, apperr.New(apperr.KindCoordination, "lease.TryClaim.commit", err)
		}
		return ClaimResult{
			OK:             false,
			OwnerID:        existing.OwnerID,
			LeaseUntilMs:   existing.LeaseUntilMs,
			LastProgressMs: existing.LastProgressMs,
		}, nil
	}

	newLeaseUntil := nowI + leaseMs
	newLastProgress := nowI
	if has && existing.LastProgressMs > newLastProgress {
		newLastProgress = existing.LastProgressMs
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO leases (job, shard, owner_id, lease_until_ms, last_progress_ms, meta, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (job, shard) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			lease_until_ms = EXCLUDED.lease_until_ms,
			last_progress_ms = EXCLUDED.last_progress_ms,
			meta = EXCLUDED.meta,
			updated_at = EXCLUDED.updated_at
		WHERE leases.lease_until_ms <= $7 OR leases.last_progress_ms < $8
	`, job, shard, ownerID, newLeaseUntil, newLastProgress, meta, nowI, nowI-staleWindowMs)
	if err != nil {
		return ClaimResult{}, apperr.New(apperr.KindCoordination, "lease.TryClaim.write", err)
	}
	if tag.RowsAffected() == 0 {
		// A concurrent claimer inserted the row after the locking read found
		// none; its live lease wins.
		if err := tx.Commit(ctx); err != nil {
			return ClaimResult{}, apperr.New(apperr.KindCoordination, "lease.TryClaim.commit", err)
		}
		return ClaimResult{OK: false}, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return ClaimResult{}, apperr.New(apperr.KindCoordination, "lease.TryClaim.commit", err)
	}

	return ClaimResult{OK: true, OwnerID: ownerID, LeaseUntilMs: newLeaseUntil, LastProgressMs: newLastProgress}, nil
}

// Renew extends lease_until_ms when ownerID still owns the row. It does not
// touch last_progress_ms.
func (s *Store) Renew(ctx context.Context, job string, shard int, ownerID string, leaseMs int64, now time.Time) (bool, error) {
	if leaseMs < MinLeaseMs || leaseMs > MaxLeaseMs {
		return false, apperr.New(apperr.KindValidation, "lease.Renew", errInvalidLeaseMs)
	}
	newLeaseUntil := nowMs(now) + leaseMs
	tag, err := s.Pool.Exec(ctx, `
		UPDATE leases SET lease_until_ms = $1, updated_at = $2
		WHERE job = $3 AND shard = $4 AND owner_id = $5
	`, newLeaseUntil, nowMs(now), job, shard, ownerID)
	if err != nil {
		return false, apperr.New(apperr.KindCoordination, "lease.Renew", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReportProgress advances last_progress_ms to now when ownerID still owns
// the row. This is the liveness signal that defeats stale takeover.
func (s *Store) ReportProgress(ctx context.Context, job string, shard int, ownerID string, meta *string, now time.Time) (bool, error) {
	nowI := nowMs(now)
	tag, err := s.Pool.Exec(ctx, `
		UPDATE leases SET last_progress_ms = $1, meta = COALESCE($2, meta), updated_at = $1
		WHERE job = $3 AND shard = $4 AND owner_id = $5
	`, nowI, meta, job, shard, ownerID)
	if err != nil {
		return false, apperr.New(apperr.KindCoordination, "lease.ReportProgress", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get reads the current lease row, if any.
func (s *Store) Get(ctx context.Context, job string, shard int) (*Row, error) {
	var r Row
	row := s.Pool.QueryRow(ctx, `
		SELECT job, shard, owner_id, lease_until_ms, last_progress_ms, meta, updated_at
		FROM leases WHERE job=$1 AND shard=$2
	`, job, shard)
	switch err := row.Scan(&r.Job, &r.Shard, &r.OwnerID, &r.LeaseUntilMs, &r.LastProgressMs, &r.Meta, &r.UpdatedAt); err {
	case nil:
		return &r, nil
	case pgx.ErrNoRows:
		return nil, nil
	default:
		return nil, apperr.New(apperr.KindCoordination, "lease.Get", err)
	}
}
