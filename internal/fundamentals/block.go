package fundamentals

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
)

// BlockFetcher pulls the full statement fan-out for one (ticker, period).
type BlockFetcher struct {
	Client  *sourceclient.Client
	BaseURL string
	Token   string
}

// FetchBlock fetches every endpoint in the fixed fan-out concurrently and
// returns the composed block, keyed by endpoint name. A single endpoint
// failure does not abort the others; it is recorded in errs and the
// endpoint key is simply absent from the block (the hash is computed over
// whatever was actually fetched, matching the source's own tolerance of
// partial responses).
func (f *BlockFetcher) FetchBlock(ctx context.Context, ticker string, period Period) (map[string]any, []error) {
	var mu sync.Mutex
	block := make(map[string]any, len(endpoints))
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	for _, ep := range endpoints {
		ep := ep
		g.Go(func() error {
			headers := map[string]string{}
			if f.Token != "" {
				headers["Authorization"] = "Bearer " + f.Token
			}
			url := fmt.Sprintf("%s/%s", f.BaseURL, ep)
			res := f.Client.Get(gctx, url, map[string]string{
				"ticker": ticker,
				"period": string(period),
			}, headers)

			mu.Lock()
			defer mu.Unlock()
			if res.OK && res.JSON != nil {
				block[ep] = res.JSON
				return nil
			}
			errs = append(errs, apperr.New(apperr.KindSourceTransient, "fundamentals.FetchBlock."+ep, res.Err))
			return nil
		})
	}
	_ = g.Wait()

	return block, errs
}
