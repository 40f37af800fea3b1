// Command news-fetch drains pending articles: fetch HTML, extract text,
// persist the result, then link the article to any tickers its title or
// body mentions.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nkgotcode/vietmarket/internal/appconfig"
	"github.com/nkgotcode/vietmarket/internal/database"
	"github.com/nkgotcode/vietmarket/internal/logging"
	"github.com/nkgotcode/vietmarket/internal/news"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
	"github.com/nkgotcode/vietmarket/internal/symbollink"
)

func main() {
	log := logging.New("news-fetch")

	runTimeout := time.Duration(appconfig.Int("VNMARKET_RUN_TIMEOUT_SEC", 180)) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	dbCfg := database.DefaultConfig()
	dbCfg.DSN = appconfig.Str("VNMARKET_DATABASE_URL", "")
	store, err := database.Connect(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect warehouse")
	}
	defer store.Close()

	symbols, err := store.QuerySymbols(ctx, true)
	if err != nil {
		log.Fatal().Err(err).Msg("load known tickers")
	}
	knownTickers := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		knownTickers = append(knownTickers, sym.Ticker)
	}

	client := sourceclient.New(sourceclient.DefaultConfig("news-fetch"))
	reqPerSec := appconfig.Int("VNMARKET_FETCH_RATE_PER_SEC", 2)
	worker := news.NewFetchWorker(store, client, float64(reqPerSec))

	batchSize := appconfig.Int("VNMARKET_FETCH_BATCH_SIZE", 200)
	urls, err := store.QueryPendingArticleURLs(ctx, batchSize)
	if err != nil {
		log.Fatal().Err(err).Msg("load pending articles")
	}

	var errs, fetched, linked int
	for _, url := range urls {
		select {
		case <-ctx.Done():
			log.Warn().Msg("run timeout reached mid-batch")
			os.Exit(124)
		default:
		}

		if err := worker.FetchOne(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("fetch article")
			errs++
			continue
		}
		fetched++

		article, err := store.QueryArticleByURL(ctx, url)
		if err != nil || article == nil || article.FetchStatus != database.FetchStatusFetched {
			continue
		}

		var body string
		if article.Text != nil {
			body = *article.Text
		}
		links := append(
			symbollink.LinkSymbolsFromTitle(article.Title, knownTickers),
			symbollink.LinkSymbolsFromBody(body, knownTickers)...,
		)
		for _, l := range links {
			if err := store.UpsertArticleSymbol(ctx, database.ArticleSymbol{
				ArticleURL: url,
				Ticker:     l.Ticker,
				Confidence: l.Confidence,
				Method:     l.Method,
			}); err != nil {
				errs++
				continue
			}
			linked++
		}
	}

	log.Info().
		Int("fetched", fetched).
		Int("symbol_links", linked).
		Int("errors", errs).
		Msg("news-fetch complete")

	if errs > 0 {
		os.Exit(1)
	}
}
