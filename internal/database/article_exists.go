package database

import "context"

// ArticleExists reports whether url is already known, used by the
// discovery worker to detect genuinely new links vs re-crawled ones.
func (s *Store) ArticleExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, classify("ArticleExists", err)
	}
	return exists, nil
}
