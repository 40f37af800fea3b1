// Package shard partitions the ticker universe deterministically across a
// fixed shard count and persists per-shard cursor progress, mirroring the
// teacher's ingester partitioning scheme (services/jax-market/internal/ingester)
// generalized from its fixed worker-pool split to the stable hash-mod
// assignment this design requires.
package shard

import (
	"crypto/sha1"
	"encoding/binary"
	"regexp"
	"sort"
	"strings"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9._-]{2,10}$`)

// Of computes the shard index for ticker out of shardCount shards. It is a
// pure function of (ticker, shardCount): sha1(ticker)'s first 4 bytes read
// as a big-endian uint32, mod shardCount. Stable across processes and
// versions
func Of(ticker string, shardCount int) int {
	sum := sha1.Sum([]byte(ticker))
	n := binary.BigEndian.Uint32(sum[0:4])
	return int(n % uint32(shardCount))
}

// NormalizeUniverse upper-cases, trims, deduplicates, drops tickers that
// fail the ticker regex, and returns the result sorted ascending.
func NormalizeUniverse(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		norm := strings.ToUpper(strings.TrimSpace(t))
		if norm == "" || !tickerPattern.MatchString(norm) {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	sort.Strings(out)
	return out
}

// TickersForShard returns the subset of a normalized universe assigned to
// shardIndex out of shardCount, preserving universe order.
func TickersForShard(universe []string, shardIndex, shardCount int) []string {
	out := make([]string, 0, len(universe)/shardCount+1)
	for _, t := range universe {
		if Of(t, shardCount) == shardIndex {
			out = append(out, t)
		}
	}
	return out
}
