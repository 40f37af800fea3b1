//go:build integration
// +build integration

package lease

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("VNMARKET_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("set VNMARKET_TEST_DATABASE_URL to run lease integration tests")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// TestTryClaim_StaleTakeover covers scenario 4: a lease whose lease_until_ms
// is already in the past must be claimable by a different owner.
func TestTryClaim_StaleTakeover(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()

	now := time.Now()
	if _, err := pool.Exec(ctx, `DELETE FROM leases WHERE job = $1 AND shard = 0`, "stale-takeover-job"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO leases (job, shard, owner_id, lease_until_ms, last_progress_ms, updated_at)
		VALUES ($1, 0, 'A', $2, $2, $2)
	`, "stale-takeover-job", now.Add(-time.Millisecond).UnixMilli()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := store.TryClaim(ctx, "stale-takeover-job", 0, "B", 300_000, 30, nil, now)
	if err != nil {
		t.Fatalf("TryClaim: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok:true, got %+v", res)
	}

	got, err := store.Get(ctx, "stale-takeover-job", 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.OwnerID != "B" {
		t.Fatalf("expected owner B, got %+v", got)
	}
}

// TestTryClaim_BoundaryLeaseUntilEqualsNow is the strict-< boundary law:
// lease_until_ms == now MUST be claimable.
func TestTryClaim_BoundaryLeaseUntilEqualsNow(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()

	now := time.Now()
	nowMs := now.UnixMilli()
	if _, err := pool.Exec(ctx, `DELETE FROM leases WHERE job = $1 AND shard = 1`, "boundary-job"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO leases (job, shard, owner_id, lease_until_ms, last_progress_ms, updated_at)
		VALUES ($1, 1, 'A', $2, $2, $2)
	`, "boundary-job", nowMs); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := store.TryClaim(ctx, "boundary-job", 1, "B", 300_000, 30, nil, now)
	if err != nil {
		t.Fatalf("TryClaim: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok:true at lease_until_ms == now boundary, got %+v", res)
	}
}

// TestTryClaim_ActiveLeaseRejectsOtherOwner covers the not-claimable branch:
// a live, non-stale lease refuses a different owner.
func TestTryClaim_ActiveLeaseRejectsOtherOwner(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()

	now := time.Now()
	if _, err := pool.Exec(ctx, `DELETE FROM leases WHERE job = $1 AND shard = 2`, "active-job"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := store.TryClaim(ctx, "active-job", 2, "A", 300_000, 30, nil, now); err != nil {
		t.Fatalf("initial claim: %v", err)
	}

	res, err := store.TryClaim(ctx, "active-job", 2, "B", 300_000, 30, nil, now.Add(time.Second))
	if err != nil {
		t.Fatalf("TryClaim: %v", err)
	}
	if res.OK {
		t.Fatalf("expected ok:false while A's lease is live, got %+v", res)
	}
	if res.OwnerID != "A" {
		t.Fatalf("expected owner A in rejection, got %+v", res)
	}
}

// TestRenewRequiresMatchingOwner ensures renew is a no-op for the wrong owner.
func TestRenewRequiresMatchingOwner(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()

	now := time.Now()
	if _, err := pool.Exec(ctx, `DELETE FROM leases WHERE job = $1 AND shard = 3`, "renew-job"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := store.TryClaim(ctx, "renew-job", 3, "A", 300_000, 30, nil, now); err != nil {
		t.Fatalf("initial claim: %v", err)
	}

	ok, err := store.Renew(ctx, "renew-job", 3, "B", 300_000, now)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if ok {
		t.Fatalf("expected renew by wrong owner to fail")
	}

	ok, err = store.Renew(ctx, "renew-job", 3, "A", 300_000, now)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if !ok {
		t.Fatalf("expected renew by correct owner to succeed")
	}
}

// TestReportProgressDefeatsStaleTakeover shows a worker calling
// report_progress keeps its lease safe from stale-takeover even after
// lease_until_ms has passed, as long as last_progress_ms is recent.
func TestReportProgressDefeatsStaleTakeover(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()

	now := time.Now()
	if _, err := pool.Exec(ctx, `DELETE FROM leases WHERE job = $1 AND shard = 4`, "progress-job"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO leases (job, shard, owner_id, lease_until_ms, last_progress_ms, updated_at)
		VALUES ($1, 4, 'A', $2, $3, $3)
	`, "progress-job", now.Add(-time.Minute).UnixMilli(), now.UnixMilli()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := store.TryClaim(ctx, "progress-job", 4, "B", 300_000, 30, nil, now)
	if err != nil {
		t.Fatalf("TryClaim: %v", err)
	}
	if res.OK {
		t.Fatalf("expected ok:false, recent progress should defeat takeover despite expired lease")
	}
}
