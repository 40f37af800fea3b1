package news

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// siteSelectors maps a host suffix to the CSS selector holding article
// body text, preferred over the generic fallback.
var siteSelectors = map[string]string{
	"cafef.vn":       "div.detail-content",
	"vietstock.vn":   "div#vst_detail",
	"vneconomy.vn":   "div.detail__content",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// ExtractText extracts cleaned article text from html, preferring a
// site-specific selector for host, falling back to generic tag-stripping
// (stripping script/style/nav/footer, joining paragraph text).
func ExtractText(html, host string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	if selector, ok := lookupSiteSelector(host); ok {
		if text := collectText(doc.Find(selector)); strings.TrimSpace(text) != "" {
			return normalizeWhitespace(text), nil
		}
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()
	text := collectText(doc.Find("p"))
	if strings.TrimSpace(text) == "" {
		text = doc.Find("body").Text()
	}
	return normalizeWhitespace(text), nil
}

func lookupSiteSelector(host string) (string, bool) {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	for suffix, selector := range siteSelectors {
		if strings.HasSuffix(host, suffix) {
			return selector, true
		}
	}
	return "", false
}

func collectText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteString(" ")
	})
	return b.String()
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// WordCount counts whitespace-delimited tokens, used to decide whether a
// fetch looks blocked/truncated.
func WordCount(text string) int {
	fields := strings.Fields(text)
	return len(fields)
}
