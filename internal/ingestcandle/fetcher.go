package ingestcandle

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
)

// Page is one OHLCV page returned by a CandleSource.
type Page struct {
	Rows     []database.Candle
	NewestTS int64
	HasMore  bool
}

// CandleSource fetches one page of bars for (ticker, tf) starting at
// fromTS, at most chunk bars. Implementations wrap C4's sourceclient.Client
// against a specific upstream history API.
type CandleSource interface {
	FetchPage(ctx context.Context, ticker string, tf TF, fromTS int64, chunk int) (Page, error)
}

// HTTPCandleSource is the production CandleSource, calling a configurable
// REST endpoint through the shared circuit-breaking source client.
type HTTPCandleSource struct {
	Client   *sourceclient.Client
	BaseURL  string // e.g. https://history.example.vn/api/candles
	APIKey   string
}

// FetchPage calls BaseURL with ticker/tf/from/limit query params and
// decodes the upstream's {data:[{t,o,h,l,c,v}]} shape into Candle rows.
func (h *HTTPCandleSource) FetchPage(ctx context.Context, ticker string, tf TF, fromTS int64, chunk int) (Page, error) {
	query := map[string]string{
		"ticker": ticker,
		"tf":     string(tf),
		"from":   strconv.FormatInt(fromTS, 10),
		"limit":  strconv.Itoa(chunk),
	}
	headers := map[string]string{}
	if h.APIKey != "" {
		headers["x-api-key"] = h.APIKey
	}

	res := h.Client.Get(ctx, h.BaseURL, query, headers)
	if !res.OK {
		if res.Err != nil {
			return Page{}, res.Err
		}
		return Page{}, apperr.New(apperr.KindSourceTransient, "ingestcandle.FetchPage", fmt.Errorf("status %d", res.Status))
	}

	rawRows, _ := res.JSON["data"].([]any)
	rows := make([]database.Candle, 0, len(rawRows))
	var newest int64
	for _, raw := range rawRows {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		c := database.Candle{Ticker: ticker, TF: string(tf)}
		if v, ok := m["t"].(float64); ok {
			c.TS = int64(v)
		}
		if v, ok := m["o"].(float64); ok {
			c.O = v
		}
		if v, ok := m["h"].(float64); ok {
			c.H = v
		}
		if v, ok := m["l"].(float64); ok {
			c.L = v
		}
		if v, ok := m["c"].(float64); ok {
			c.C = v
		}
		if v, ok := m["v"].(float64); ok {
			vv := v
			c.V = &vv
		}
		c.Source = h.BaseURL
		rows = append(rows, c)
		if c.TS > newest {
			newest = c.TS
		}
	}

	return Page{Rows: rows, NewestTS: newest, HasMore: len(rows) >= chunk}, nil
}
