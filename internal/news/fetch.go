package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
)

const minWordCount = 80

// FetchWorker dequeues pending articles and fetches their HTML body,
// rate-limited, retrying once when the body looks blocked
// or too short.
type FetchWorker struct {
	Store    *database.Store
	Client   *sourceclient.Client
	Limiter  *rate.Limiter
}

// NewFetchWorker builds a worker rate-limited to reqPerSec requests/second.
func NewFetchWorker(store *database.Store, client *sourceclient.Client, reqPerSec float64) *FetchWorker {
	return &FetchWorker{
		Store:   store,
		Client:  client,
		Limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}
}

// FetchOne downloads one article's HTML, extracts text, and updates its
// row. It retries once when the body is short or a 403/
// blocked response was observed, approximating the unavailable
// headless-browser fallback with a second plain-HTTP attempt carrying
// Cache-Control: no-cache.
func (w *FetchWorker) FetchOne(ctx context.Context, articleURL string) error {
	if err := w.Limiter.Wait(ctx); err != nil {
		return apperr.New(apperr.KindTimeout, "news.FetchOne", err)
	}

	host := hostOf(articleURL)

	res := w.Client.Get(ctx, articleURL, nil, nil)
	text, wordCount, method := "", 0, "http"
	needsRetry := !res.OK || isBlockedStatus(res.Status)

	if res.OK {
		t, err := ExtractText(string(res.Raw), host)
		if err == nil {
			text = t
			wordCount = WordCount(t)
		}
		needsRetry = needsRetry || wordCount < minWordCount
	}

	if needsRetry {
		if err := w.Limiter.Wait(ctx); err != nil {
			return apperr.New(apperr.KindTimeout, "news.FetchOne", err)
		}
		retryRes := w.Client.Get(ctx, articleURL, nil, map[string]string{"Cache-Control": "no-cache"})
		if retryRes.OK {
			if t, err := ExtractText(string(retryRes.Raw), host); err == nil && WordCount(t) > wordCount {
				text = t
				wordCount = WordCount(t)
				method = "http_retry"
				res = retryRes
			}
		}
	}

	now := time.Now()
	if !res.OK || wordCount == 0 {
		errMsg := truncateError(res.Err)
		return w.Store.UpsertArticle(ctx, database.Article{
			URL:          articleURL,
			Source:       "fetch",
			Title:        "",
			DiscoveredAt: now,
			FetchedAt:    &now,
			FetchStatus:  database.FetchStatusFailed,
			FetchError:   &errMsg,
		})
	}

	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])
	wc := wordCount

	return w.Store.UpsertArticle(ctx, database.Article{
		URL:           articleURL,
		Source:        "fetch",
		DiscoveredAt:  now,
		FetchedAt:     &now,
		FetchStatus:   database.FetchStatusFetched,
		FetchMethod:   &method,
		Text:          &text,
		ContentSHA256: &hash,
		WordCount:     &wc,
	})
}

func isBlockedStatus(status int) bool {
	return status == 403 || status == 429
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func truncateError(err error) string {
	if err == nil {
		return "unknown fetch error"
	}
	s := err.Error()
	const maxLen = 500
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
