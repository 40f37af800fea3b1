package database

import "time"

// Config holds warehouse connection configuration, adapted from the
// teacher's libs/database.Config (same field shape, same Validate defaults).
type Config struct {
	DSN string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns a Config with sensible production defaults. The
// query service overrides MaxConns down to a small bound since it holds a
// long-lived pool; ingest workers use the full default pool since they
// are short-lived.
func DefaultConfig() Config {
	return Config{
		MaxConns:        25,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
	}
}

// Validate fills in zero-valued fields with defaults and reports an error
// for a missing DSN.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return ErrInvalidDSN
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 25
	}
	if c.MinConns < 0 {
		c.MinConns = 0
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
	if c.MaxConnIdleTime <= 0 {
		c.MaxConnIdleTime = 5 * time.Minute
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return nil
}
