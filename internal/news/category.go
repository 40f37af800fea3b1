package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nkgotcode/vietmarket/internal/apperr"
	"github.com/nkgotcode/vietmarket/internal/sourceclient"
)

// GoqueryCategoryFetcher fetches a seed's category listing page
// (channel_id + page=n) and extracts article anchor links.
type GoqueryCategoryFetcher struct {
	Client        *sourceclient.Client
	BaseURL       string // e.g. https://site.vn/category
	LinkSelector  string // css selector for article anchors, e.g. "article a.title"
}

// FetchPage downloads one category-listing page and extracts links.
func (g *GoqueryCategoryFetcher) FetchPage(ctx context.Context, channelID string, page int) ([]ArticleLink, error) {
	query := map[string]string{
		"channel_id": channelID,
		"page":       fmt.Sprintf("%d", page),
	}
	res := g.Client.Get(ctx, g.BaseURL, query, nil)
	if !res.OK {
		if res.Err != nil {
			return nil, res.Err
		}
		return nil, apperr.New(apperr.KindSourceTransient, "news.GoqueryCategoryFetcher.FetchPage", fmt.Errorf("status %d", res.Status))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(res.Raw)))
	if err != nil {
		return nil, apperr.New(apperr.KindIntegrity, "news.GoqueryCategoryFetcher.FetchPage", err)
	}

	selector := g.LinkSelector
	if selector == "" {
		selector = "a"
	}

	var links []ArticleLink
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		title := strings.TrimSpace(sel.Text())
		links = append(links, ArticleLink{URL: href, Title: title})
	})
	return links, nil
}
