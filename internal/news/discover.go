// Package news implements discovery and fetch workers for the article
// pipeline: RSS/category-page link discovery, polite rate
// limited fetch, and goquery-based text extraction.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/database"
)

// rssFeed is the minimal RSS 2.0 shape needed to pull item links.
type rssFeed struct {
	Channel struct {
		Items []struct {
			Link        string `xml:"link"`
			Title       string `xml:"title"`
			PubDate     string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// rssTimeLayouts covers the pubDate formats seen across VN financial feeds.
var rssTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05Z07:00",
}

func parsePubDate(raw string) *time.Time {
	for _, layout := range rssTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// CategoryPageFetcher fetches one page of a seed's category listing and
// extracts article links. Implemented against goquery by the caller
// (see category.go); declared here so DiscoverSeed stays source-agnostic.
type CategoryPageFetcher interface {
	FetchPage(ctx context.Context, channelID string, page int) (links []ArticleLink, err error)
}

// ArticleLink is one discovered link with whatever metadata the source
// page exposes up front.
type ArticleLink struct {
	URL         string
	Title       string
	PublishedAt *time.Time
}

// DiscoverFromRSS parses cached feed XML bytes and upserts one pending
// article row per item.
func DiscoverFromRSS(ctx context.Context, store *database.Store, feedURL string, xmlBody []byte) (int, error) {
	var feed rssFeed
	if err := xml.Unmarshal(xmlBody, &feed); err != nil {
		return 0, apperr.New(apperr.KindIntegrity, "news.DiscoverFromRSS", fmt.Errorf("parse %s: %w", feedURL, err))
	}

	count := 0
	for _, item := range feed.Channel.Items {
		if item.Link == "" {
			continue
		}
		pub := parsePubDate(item.PubDate)
		err := store.UpsertArticle(ctx, database.Article{
			URL:          item.Link,
			Source:       "rss",
			Title:        item.Title,
			PublishedAt:  pub,
			FeedURL:      &feedURL,
			DiscoveredAt: time.Now(),
			FetchStatus:  database.FetchStatusPending,
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// DiscoverSeedResult summarizes one seed's category-page crawl pass.
type DiscoverSeedResult struct {
	NewURLs          int
	ConsecutiveEmpty int
	Done             bool
}

// DiscoverSeed pages through a seed's category listing starting at
// startPage, calling upsert_article for each newly seen link, and reports
// "done" once 3 consecutive pages yield no new URLs.
func DiscoverSeed(ctx context.Context, store *database.Store, fetcher CategoryPageFetcher, channelID string, startPage int, priorConsecutiveEmpty int) (DiscoverSeedResult, int, error) {
	const doneThreshold = 3

	page := startPage
	consecutiveEmpty := priorConsecutiveEmpty
	totalNew := 0

	for consecutiveEmpty < doneThreshold {
		select {
		case <-ctx.Done():
			return DiscoverSeedResult{NewURLs: totalNew, ConsecutiveEmpty: consecutiveEmpty}, page, ctx.Err()
		default:
		}

		links, err := fetcher.FetchPage(ctx, channelID, page)
		if err != nil {
			return DiscoverSeedResult{NewURLs: totalNew, ConsecutiveEmpty: consecutiveEmpty}, page, err
		}

		newThisPage := 0
		for _, l := range links {
			existed, err := store.ArticleExists(ctx, l.URL)
			if err != nil {
				return DiscoverSeedResult{NewURLs: totalNew, ConsecutiveEmpty: consecutiveEmpty}, page, err
			}
			err = store.UpsertArticle(ctx, database.Article{
				URL:          l.URL,
				Source:       "category",
				Title:        l.Title,
				PublishedAt:  l.PublishedAt,
				DiscoveredAt: time.Now(),
				FetchStatus:  database.FetchStatusPending,
			})
			if err != nil {
				return DiscoverSeedResult{NewURLs: totalNew, ConsecutiveEmpty: consecutiveEmpty}, page, err
			}
			if !existed {
				newThisPage++
			}
		}
		totalNew += newThisPage

		if newThisPage == 0 {
			consecutiveEmpty++
		} else {
			consecutiveEmpty = 0
		}
		page++
	}

	return DiscoverSeedResult{NewURLs: totalNew, ConsecutiveEmpty: consecutiveEmpty, Done: true}, page, nil
}
