package shard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nkgotcode/vietmarket/internal/apperr"
)

// universeFile is the on-disk shape for the JSON universe source.
type universeFile struct {
	Tickers []string `json:"tickers"`
}

// LoadUniverseFromFile reads {"tickers": [...]}  and returns the normalized,
// deduped, sorted universe.
func LoadUniverseFromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.KindStorageTransient, "shard.LoadUniverseFromFile", err)
	}
	var f universeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperr.New(apperr.KindIntegrity, "shard.LoadUniverseFromFile", fmt.Errorf("parse %s: %w", path, err))
	}
	return NormalizeUniverse(f.Tickers), nil
}

// LoadUniverseFromWarehouse normalizes a raw ticker list already fetched by
// the caller (typically database.Store.QuerySymbols) into the shard
// universe. Kept as a pure function, rather than taking a DB-shaped
// interface here, to avoid coupling this package to the warehouse schema.
func LoadUniverseFromWarehouse(ctx context.Context, rawTickers []string) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return NormalizeUniverse(rawTickers), nil
}
