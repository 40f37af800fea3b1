package database

import "time"

// Candle is an OHLCV bar keyed by (ticker, tf, ts). ts is unix-milliseconds,
// never TIMESTAMPTZ
type Candle struct {
	Ticker     string    `json:"ticker"`
	TF         string    `json:"tf"`
	TS         int64     `json:"ts"`
	O          float64   `json:"o"`
	H          float64   `json:"h"`
	L          float64   `json:"l"`
	C          float64   `json:"c"`
	V          *float64  `json:"v,omitempty"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Symbol is the stable-key entity created on first sighting from any
// source.
type Symbol struct {
	Ticker    string  `json:"ticker"`
	Name      *string `json:"name,omitempty"`
	Exchange  *string `json:"exchange,omitempty"`
	Active    *bool   `json:"active,omitempty"`
	UpdatedAt *int64  `json:"updated_at,omitempty"`
}

// Article is a discovered/fetched news item, pk url.
type Article struct {
	URL           string     `json:"url"`
	CanonicalURL  *string    `json:"canonical_url,omitempty"`
	Source        string     `json:"source"`
	Title         string     `json:"title"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	FeedURL       *string    `json:"feed_url,omitempty"`
	DiscoveredAt  time.Time  `json:"discovered_at"`
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	FetchStatus   string     `json:"fetch_status"`
	FetchMethod   *string    `json:"fetch_method,omitempty"`
	FetchError    *string    `json:"fetch_error,omitempty"`
	Text          *string    `json:"text,omitempty"`
	ContentSHA256 *string    `json:"content_sha256,omitempty"`
	WordCount     *int       `json:"word_count,omitempty"`
	Lang          *string    `json:"lang,omitempty"`
	IngestedAt    time.Time  `json:"ingested_at"`
}

const (
	FetchStatusPending = "pending"
	FetchStatusFetched = "fetched"
	FetchStatusFailed  = "failed"
)

// ArticleSymbol links an article to a ticker with a monotonically
// non-decreasing confidence.
type ArticleSymbol struct {
	ArticleURL string  `json:"article_url"`
	Ticker     string  `json:"ticker"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// FIPoint is one normalized fundamentals metric observation.
type FIPoint struct {
	Ticker         string     `json:"ticker"`
	Period         string     `json:"period"`
	Statement      string     `json:"statement"`
	PeriodDate     time.Time  `json:"period_date"`
	PeriodDateName *string    `json:"period_date_name,omitempty"`
	Metric         string     `json:"metric"`
	Value          *float64   `json:"value,omitempty"`
	FetchedAt      time.Time  `json:"fetched_at"`
}

// CorporateAction is a dividend/split/AGM-style event row.
type CorporateAction struct {
	ID         string     `json:"id"`
	Ticker     string     `json:"ticker"`
	Exchange   *string    `json:"exchange,omitempty"`
	ExDate     *time.Time `json:"ex_date,omitempty"`
	RecordDate *time.Time `json:"record_date,omitempty"`
	PayDate    *time.Time `json:"pay_date,omitempty"`
	EventType  *string    `json:"event_type,omitempty"`
	Headline   *string    `json:"headline,omitempty"`
	Source     string     `json:"source"`
	SourceURL  *string    `json:"source_url,omitempty"`
	IngestedAt time.Time  `json:"ingested_at"`
}

// RepairQueueEntry is one candle_repair_queue row.
type RepairQueueEntry struct {
	ID            string     `json:"id"`
	Ticker        string     `json:"ticker"`
	TF            string     `json:"tf"`
	WindowStartTS int64      `json:"window_start_ts"`
	WindowEndTS   int64      `json:"window_end_ts"`
	ExpectedBars  int        `json:"expected_bars"`
	Note          *string    `json:"note,omitempty"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     *string    `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const (
	RepairStatusQueued  = "queued"
	RepairStatusRunning = "running"
	RepairStatusDone    = "done"
	RepairStatusError   = "error"
)

// TechnicalIndicatorRow is one (ticker,tf,indicator) computed value in the
// technical_indicators derived table.
type TechnicalIndicatorRow struct {
	Ticker string   `json:"ticker"`
	TF     string   `json:"tf"`
	Name   string   `json:"name"`
	Value  *float64 `json:"value,omitempty"`
}

// IndicatorRow is one (ticker,name) cross-timeframe composite metric in the
// indicators derived table.
type IndicatorRow struct {
	Ticker string   `json:"ticker"`
	Name   string   `json:"name"`
	Value  *float64 `json:"value,omitempty"`
}

// MarketStatRow is one KPI snapshot written into market_stats by
// derived-sync: coverage, row/ticker counts, and frontier lag for one tf
//.
type MarketStatRow struct {
	TF                   string  `json:"tf"`
	CandlesEligibleTotal int     `json:"candles_eligible_total"`
	CandlesWithCandles   int     `json:"candles_with_candles"`
	CandlesMissing       int     `json:"candles_missing"`
	CandlesCoveragePct   float64 `json:"candles_coverage_pct"`
	RowsCount            int64   `json:"rows_count"`
	TickersCount         int     `json:"tickers_count"`
	FrontierStatus       string  `json:"frontier_status"`
	FrontierLagMs        int64   `json:"frontier_lag_ms"`
}

// TopMoverRow is one row of the query_top_movers result.
type TopMoverRow struct {
	Ticker      string   `json:"ticker"`
	TF          string   `json:"tf"`
	TSLatest    int64    `json:"ts_latest"`
	CloseLatest float64  `json:"close_latest"`
	ClosePrev   *float64 `json:"close_prev,omitempty"`
	PctChange   *float64 `json:"pct_change,omitempty"`
}
