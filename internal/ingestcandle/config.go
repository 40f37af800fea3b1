// Package ingestcandle implements the scheduled candle-ingestion worker: a
// one-shot, sharded, lease-coordinated batch run driven by cmd/candle-ingest.
package ingestcandle

import "time"

// TF is one of the three supported candle timeframes.
type TF string

const (
	TF1d  TF = "1d"
	TF1h  TF = "1h"
	TF15m TF = "15m"
)

// Config is one run's full parameter set, populated by cmd/candle-ingest
// from VNMARKET_* environment variables (no CLI flags are parsed).
type Config struct {
	JobName      string
	NodeID       string
	ShardCount   int
	ShardIndex   int
	BatchSize    int
	TFs          []TF
	StartByTF    map[TF]time.Time
	Chunk        int
	IncludeIndices bool
	RunTimeoutSec  int
	StaleMinutes   int
	LeaseMs        int64
	CursorDir      string
	SleepMs        int
	HeartbeatSec   int
	UniverseFile   string
	Concurrency    int
}

// DefaultConfig fills in the non-domain-specific defaults; callers must
// still set JobName, NodeID, ShardCount/Index and the universe source.
func DefaultConfig() Config {
	return Config{
		BatchSize:      50,
		TFs:            []TF{TF1d},
		Chunk:          500,
		RunTimeoutSec:  240,
		StaleMinutes:   30,
		LeaseMs:        300_000,
		SleepMs:        200,
		HeartbeatSec:   10,
		Concurrency:    4,
	}
}
