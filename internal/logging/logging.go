// Package logging wires the process-wide structured logger. It follows the
// teacher's observability.WithRunInfo context-carrying pattern
// (libs/observability/context.go) but backs it with zerolog instead of a
// hand-rolled JSON-over-log.Logger formatter, matching how aristath-sentinel
// and dnldd-entry do structured logging elsewhere in the retrieval pack.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type runInfoKey struct{}

// RunInfo identifies the current worker invocation for correlation across
// log lines.
type RunInfo struct {
	RunID   string
	Job     string
	Shard   int
	OwnerID string
}

// New builds the base logger for a process named component. Output is
// JSON to stdout; set VNMARKET_LOG_PRETTY=1 for a console writer in local
// development.
func New(component string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	var w io.Writer = os.Stdout
	if os.Getenv("VNMARKET_LOG_PRETTY") != "" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	level := zerolog.InfoLevel
	if lv, err := zerolog.ParseLevel(os.Getenv("VNMARKET_LOG_LEVEL")); err == nil {
		level = lv
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// WithRunInfo attaches RunInfo to ctx and returns a logger enriched with the
// same fields, so every log line emitted for this run is self-describing.
func WithRunInfo(ctx context.Context, log zerolog.Logger, info RunInfo) (context.Context, zerolog.Logger) {
	l := log.With().Str("run_id", info.RunID).Logger()
	if info.Job != "" {
		l = l.With().Str("job", info.Job).Logger()
	}
	if info.Job != "" {
		l = l.With().Int("shard", info.Shard).Logger()
	}
	if info.OwnerID != "" {
		l = l.With().Str("owner_id", info.OwnerID).Logger()
	}
	ctx = context.WithValue(ctx, runInfoKey{}, info)
	return ctx, l
}

// FromContext retrieves RunInfo previously attached with WithRunInfo.
func FromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}
