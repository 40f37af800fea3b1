// Command news-discover pulls new article links into the pipeline: one
// pass over configured RSS feeds, plus a category-page crawl per seed
// channel until three consecutive empty pages are seen.
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
)

func main() {
	log := logging.New("news-discover")

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

	var errs, newURLs int

	rssClient := sourceclient.New(sourceclient.DefaultConfig("news-rss"))
	for _, feedURL := range appconfig.StrList("VNMARKET_RSS_FEEDS", nil) {
		res := rssClient.Get(ctx, feedURL, nil, nil)
		if !res.OK {
			log.Warn().Err(res.Err).Str("feed", feedURL).Msg("fetch RSS feed")
			errs++
			continue
		}
		n, err := news.DiscoverFromRSS(ctx, store, feedURL, res.Raw)
		if err != nil {
			log.Warn().Err(err).Str("feed", feedURL).Msg("parse RSS feed")
			errs++
			continue
		}
		newURLs += n
	}

	baseURL := appconfig.Str("VNMARKET_CATEGORY_BASE_URL", "")
	if baseURL != "" {
		client := sourceclient.New(sourceclient.DefaultConfig("news-category"))
		fetcher := &news.GoqueryCategoryFetcher{
			Client:       client,
			BaseURL:      baseURL,
			LinkSelector: appconfig.Str("VNMARKET_CATEGORY_LINK_SELECTOR", "article a.title"),
		}
		for _, channelID := range appconfig.StrList("VNMARKET_CATEGORY_CHANNELS", nil) {
			result, _, err := news.DiscoverSeed(ctx, store, fetcher, channelID, 1, 0)
			if err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("channel", channelID).Msg("crawl category seed")
				errs++
				continue
			}
			newURLs += result.NewURLs
		}
	}

	log.Info().
		Int("new_urls", newURLs).
		Int("errors", errs).
		Msg("news-discover complete")

	if ctx.Err() != nil {
		os.Exit(124)
	}
	if errs > 0 {
		os.Exit(1)
	}
}
