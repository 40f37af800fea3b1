package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// UpsertArticle creates or updates an article row by url, the primary key.
// Re-fetch updates in place.
func (s *Store) UpsertArticle(ctx context.Context, a Article) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO articles (
			url, canonical_url, source, title, published_at, feed_url,
			discovered_at, fetched_at, fetch_status, fetch_method, fetch_error,
			text, content_sha256, word_count, lang, ingested_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now())
		ON CONFLICT (url) DO UPDATE SET
			canonical_url = EXCLUDED.canonical_url,
			title         = CASE WHEN EXCLUDED.title = '' THEN articles.title ELSE EXCLUDED.title END,
			published_at  = COALESCE(EXCLUDED.published_at, articles.published_at),
			feed_url      = COALESCE(EXCLUDED.feed_url, articles.feed_url),
			fetched_at    = COALESCE(EXCLUDED.fetched_at, articles.fetched_at),
			fetch_status  = EXCLUDED.fetch_status,
			fetch_method  = COALESCE(EXCLUDED.fetch_method, articles.fetch_method),
			fetch_error   = EXCLUDED.fetch_error,
			text          = COALESCE(EXCLUDED.text, articles.text),
			content_sha256= COALESCE(EXCLUDED.content_sha256, articles.content_sha256),
			word_count    = COALESCE(EXCLUDED.word_count, articles.word_count),
			lang          = COALESCE(EXCLUDED.lang, articles.lang)
	`,
		a.URL, a.CanonicalURL, a.Source, a.Title, a.PublishedAt, a.FeedURL,
		a.DiscoveredAt, a.FetchedAt, a.FetchStatus, a.FetchMethod, a.FetchError,
		a.Text, a.ContentSHA256, a.WordCount, a.Lang,
	)
	return classify("UpsertArticle", err)
}

// UpsertArticleSymbol links article_url to ticker, monotonically raising
// confidence on conflict.
func (s *Store) UpsertArticleSymbol(ctx context.Context, link ArticleSymbol) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO article_symbols (article_url, ticker, confidence, method)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (article_url, ticker) DO UPDATE SET
			confidence = GREATEST(article_symbols.confidence, EXCLUDED.confidence),
			method = CASE WHEN EXCLUDED.confidence > article_symbols.confidence
			              THEN EXCLUDED.method ELSE article_symbols.method END
	`, link.ArticleURL, link.Ticker, link.Confidence, link.Method)
	return classify("UpsertArticleSymbol", err)
}

// QueryArticleByURL reads one article row in full, used by news-fetch to
// re-read the text it just persisted before running symbol linking.
func (s *Store) QueryArticleByURL(ctx context.Context, url string) (*Article, error) {
	var a Article
	row := s.Pool.QueryRow(ctx, `
		SELECT url, canonical_url, source, title, published_at, feed_url,
		       discovered_at, fetched_at, fetch_status, fetch_method, fetch_error,
		       text, content_sha256, word_count, lang, ingested_at
		FROM articles WHERE url = $1
	`, url)
	err := row.Scan(&a.URL, &a.CanonicalURL, &a.Source, &a.Title, &a.PublishedAt, &a.FeedURL,
		&a.DiscoveredAt, &a.FetchedAt, &a.FetchStatus, &a.FetchMethod, &a.FetchError,
		&a.Text, &a.ContentSHA256, &a.WordCount, &a.Lang, &a.IngestedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, classify("QueryArticleByURL", err)
	}
	return &a, nil
}

// QueryPendingArticleURLs returns up to limit URLs still awaiting a fetch
// pass, oldest-discovered first, for news-fetch's worker loop.
func (s *Store) QueryPendingArticleURLs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT url FROM articles WHERE fetch_status = 'pending'
		ORDER BY discovered_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, classify("QueryPendingArticleURLs", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, classify("QueryPendingArticleURLs.scan", err)
		}
		out = append(out, url)
	}
	return out, classify("QueryPendingArticleURLs.rows", rows.Err())
}

// NewsRow is a denormalized article row for the query-service news
// endpoints, carrying the aggregated ticker list.
type NewsRow struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Snippet     string     `json:"snippet"`
	Tickers     []string   `json:"tickers"`
}

// QueryNewsLatest returns fetched articles newest-first with keyset paging
// on (published_at DESC, url DESC).
func (s *Store) QueryNewsLatest(ctx context.Context, limit int, beforePublishedAt *time.Time, beforeURL *string) ([]NewsRow, error) {
	return s.queryNews(ctx, "", limit, beforePublishedAt, beforeURL)
}

// QueryNewsByTicker restricts QueryNewsLatest to articles linked to ticker.
func (s *Store) QueryNewsByTicker(ctx context.Context, ticker string, limit int, beforePublishedAt *time.Time, beforeURL *string) ([]NewsRow, error) {
	return s.queryNews(ctx, ticker, limit, beforePublishedAt, beforeURL)
}

func (s *Store) queryNews(ctx context.Context, ticker string, limit int, beforePublishedAt *time.Time, beforeURL *string) ([]NewsRow, error) {
	const base = `
		SELECT a.url, a.title, a.source, a.published_at, left(coalesce(a.text,''),220)
		FROM articles a
		WHERE a.fetch_status = 'fetched'
	`
	args := []any{}
	query := base
	if ticker != "" {
		query += ` AND EXISTS (SELECT 1 FROM article_symbols s WHERE s.article_url = a.url AND s.ticker = $1)`
		args = append(args, ticker)
	}
	if beforePublishedAt != nil && beforeURL != nil {
		query += fmt.Sprintf(" AND (a.published_at, a.url) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, *beforePublishedAt, *beforeURL)
	}
	query += fmt.Sprintf(" ORDER BY a.published_at DESC, a.url DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("queryNews", err)
	}
	defer rows.Close()

	var out []NewsRow
	urls := make([]string, 0, limit)
	byURL := map[string]*NewsRow{}
	for rows.Next() {
		var n NewsRow
		if err := rows.Scan(&n.URL, &n.Title, &n.Source, &n.PublishedAt, &n.Snippet); err != nil {
			return nil, classify("queryNews.scan", err)
		}
		out = append(out, n)
		urls = append(urls, n.URL)
		byURL[n.URL] = &out[len(out)-1]
	}
	if err := rows.Err(); err != nil {
		return nil, classify("queryNews.rows", err)
	}
	if len(urls) == 0 {
		return out, nil
	}

	linkRows, err := s.Pool.Query(ctx, `
		SELECT article_url, ticker FROM article_symbols WHERE article_url = ANY($1)
	`, urls)
	if err != nil {
		return nil, classify("queryNews.links", err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var url, tkr string
		if err := linkRows.Scan(&url, &tkr); err != nil {
			return nil, classify("queryNews.links.scan", err)
		}
		if row, ok := byURL[url]; ok {
			row.Tickers = append(row.Tickers, tkr)
		}
	}
	return out, classify("queryNews.links.rows", linkRows.Err())
}
