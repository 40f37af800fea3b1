// Package sourceclient wraps outbound HTTP calls to upstream market-data and
// news providers with per-host circuit breaking, bounded retry, and a typed
// result that keeps control flow explicit at the caller — no exceptions
// cross this boundary.
package sourceclient

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"

	"github.com/nkgotcode/vietmarket/internal/apperr"
)

// Result is the typed outcome of one logical call (after retries): a
// {ok, status, body | error} struct instead of exception-driven control
// flow.
type Result struct {
	OK     bool
	Status int
	JSON   map[string]any
	Raw    []byte
	Err    error
}

// Config tunes one Client instance.
type Config struct {
	Timeout       time.Duration
	UserAgent     string
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	BreakerName   string
	MaxFailures   uint32
	BreakerWindow time.Duration
	BreakerCooldown time.Duration
}

// DefaultConfig returns conservative breaker and retry defaults for one
// upstream host.
func DefaultConfig(breakerName string) Config {
	return Config{
		Timeout:         15 * time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		MaxAttempts:     4,
		BaseDelay:       500 * time.Millisecond,
		BackoffFactor:   2.0,
		BreakerName:     breakerName,
		MaxFailures:     5,
		BreakerWindow:   10 * time.Second,
		BreakerCooldown: 30 * time.Second,
	}
}

// Client performs GET/POST requests against one upstream host, behind a
// dedicated circuit breaker, with bounded exponential-backoff retry that
// never retries 4xx responses.
type Client struct {
	cfg    Config
	http   *resty.Client
	cb     *gobreaker.CircuitBreaker[*Result]
	rndMu  sync.Mutex
	rndSrc *rand.Rand
}

// New builds a client for one upstream host.
func New(cfg Config) *Client {
	rc := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	settings := gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 3,
		Interval:    cfg.BreakerWindow,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= cfg.MaxFailures || failureRatio >= 0.6)
		},
	}

	return &Client{
		cfg:    cfg,
		http:   rc,
		cb:     gobreaker.NewCircuitBreaker[*Result](settings),
		rndSrc: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Get issues a GET request with optional query params and header overrides,
// retrying transient failures up to MaxAttempts times with jittered
// exponential backoff. 4xx responses are treated as terminal and never
// retried. Context cancellation aborts immediately.
func (c *Client) Get(ctx context.Context, url string, query map[string]string, headers map[string]string) Result {
	attempt := func() (*Result, error) {
		req := c.http.R().SetContext(ctx)
		if query != nil {
			req.SetQueryParams(query)
		}
		for k, v := range headers {
			req.SetHeader(k, v)
		}
		resp, err := req.Get(url)
		if err != nil {
			return nil, apperr.New(apperr.KindSourceTransient, "sourceclient.Get", err)
		}

		status := resp.StatusCode()
		body := resp.Body()
		res := &Result{Status: status, Raw: body}

		if status >= 500 {
			res.Err = apperr.New(apperr.KindSourceTransient, "sourceclient.Get", errStatus(status))
			return res, res.Err
		}
		if status >= 400 {
			res.Err = apperr.New(apperr.KindSourceTerminal, "sourceclient.Get", errStatus(status))
			return res, nil
		}

		res.OK = true
		var parsed map[string]any
		if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
			res.JSON = parsed
		}
		return res, nil
	}

	var last *Result
	delay := c.cfg.BaseDelay
	for i := 0; i < c.cfg.MaxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return Result{Err: apperr.New(apperr.KindTimeout, "sourceclient.Get", ctx.Err())}
			case <-time.After(c.jitter(delay)):
				delay = time.Duration(float64(delay) * c.cfg.BackoffFactor)
			}
		}

		out, err := c.cb.Execute(attempt)
		if out != nil {
			last = out
		}

		if err == nil && out != nil && (out.OK || apperr.KindOf(out.Err) == apperr.KindSourceTerminal) {
			return *out
		}
		if err == gobreaker.ErrOpenState {
			return Result{Err: apperr.New(apperr.KindSourceTransient, "sourceclient.Get", err)}
		}
	}

	if last != nil {
		return *last
	}
	return Result{Err: apperr.New(apperr.KindSourceTransient, "sourceclient.Get", errExhausted)}
}

func (c *Client) jitter(d time.Duration) time.Duration {
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterFrac := 0.8 + 0.4*c.rndSrc.Float64()
	return time.Duration(float64(d) * jitterFrac)
}

// State exposes the breaker state for health/diagnostic surfaces.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}
