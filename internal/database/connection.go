package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store wraps a pgxpool.Pool with the warehouse's connection-retry and
// migration discipline, built on pgxpool instead of database/sql so the
// candle batch upserts can use pgx's native batch API.
type Store struct {
	Pool   *pgxpool.Pool
	config Config
}

// Connect establishes the pool with retry + exponential backoff.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	var pool *pgxpool.Pool
	delay := cfg.RetryDelay
	for attempt := 0; attempt <= cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}

		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			if attempt == cfg.RetryAttempts {
				return nil, fmt.Errorf("open pool after %d attempts: %w", attempt+1, err)
			}
			continue
		}

		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			if attempt == cfg.RetryAttempts {
				return nil, fmt.Errorf("ping after %d attempts: %w", attempt+1, err)
			}
			continue
		}

		return &Store{Pool: pool, config: cfg}, nil
	}
	return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
}

// ConnectWithMigrations connects and then runs the embedded schema
// migrations to completion before returning.
func ConnectWithMigrations(ctx context.Context, cfg Config) (*Store, error) {
	store, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(cfg.DSN); err != nil {
		store.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// RunMigrations applies every embedded migration that has not yet run.
// Migrations execute over database/sql + lib/pq (golang-migrate's postgres
// driver) while runtime queries use pgx directly.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// HealthCheck pings the pool with a bounded timeout, used by /healthz.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.Pool.Close()
}

// ensure the postgres driver package used by golang-migrate is linked in
// even though we reach it only via the dsn string at runtime.
var _ = postgres.Config{}
