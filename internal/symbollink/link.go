// Package symbollink implements deterministic, regex-driven ticker
// extraction from Vietnamese financial text.
package symbollink

import (
	"regexp"
	"sort"
	"strings"
)

// Link is one (ticker, confidence, method) extraction result.
type Link struct {
	Ticker     string
	Confidence float64
	Method     string
}

var tickerToken = `[A-Z]{2,5}`

var (
	reParen         = regexp.MustCompile(`\((` + tickerToken + `)\)`)
	reExchangeParen = regexp.MustCompile(`\b(` + tickerToken + `)\s*\((HOSE|HNX|UPCOM)\)`)
	reExchangeColon = regexp.MustCompile(`\b(HOSE|HNX|UPCOM)[:\-]\s*(` + tickerToken + `)\b`)
	reKeywordCoPhieu = regexp.MustCompile(`C[OỔ]\s*PHI[EẾ]U\s+(` + tickerToken + `)\b`)
	reKeywordMa      = regexp.MustCompile(`M[AÃ]\s*(?:CK\s+|CH[UỨ]NG\s+KHO[AÁ]N\s+)?(` + tickerToken + `)\b`)
	reBareToken      = regexp.MustCompile(`\b(` + tickerToken + `)\b`)
)

var stopwords = map[string]struct{}{
	"ETF": {}, "USD": {}, "VND": {}, "VNINDEX": {}, "HNX": {}, "HOSE": {}, "UPCOM": {}, "CTCP": {}, "VNI": {},
}

var tickerShape = regexp.MustCompile(`^[A-Z]{2,5}$`)

func isValidCandidate(tkr string) bool {
	if !tickerShape.MatchString(tkr) {
		return false
	}
	if _, stop := stopwords[tkr]; stop {
		return false
	}
	return true
}

// LinkSymbolsFromText extracts tickers from s (title or body), optionally
// restricted to knownTickers (nil/empty means unrestricted). method names
// are prefixed with prefix (e.g. "title_" or "body_"). Deterministic:
// output is sorted (confidence desc, ticker asc), each ticker appearing
// once at its highest observed confidence.
func LinkSymbolsFromText(s string, knownTickers []string, prefix string) []Link {
	upper := strings.ToUpper(s)

	var knownSet map[string]struct{}
	if len(knownTickers) > 0 {
		knownSet = make(map[string]struct{}, len(knownTickers))
		for _, t := range knownTickers {
			knownSet[strings.ToUpper(t)] = struct{}{}
		}
	}

	best := map[string]Link{}
	consider := func(tkr, method string, confidence float64) {
		if !isValidCandidate(tkr) {
			return
		}
		if knownSet != nil {
			if _, ok := knownSet[tkr]; !ok {
				return
			}
		}
		if existing, ok := best[tkr]; !ok || confidence > existing.Confidence {
			best[tkr] = Link{Ticker: tkr, Confidence: confidence, Method: prefix + method}
		}
	}

	for _, m := range reParen.FindAllStringSubmatch(upper, -1) {
		consider(m[1], "paren", 0.95)
	}
	for _, m := range reExchangeParen.FindAllStringSubmatch(upper, -1) {
		consider(m[1], "exchange_paren", 0.92)
	}
	for _, m := range reExchangeColon.FindAllStringSubmatch(upper, -1) {
		consider(m[2], "exchange_colon", 0.92)
	}
	for _, m := range reKeywordCoPhieu.FindAllStringSubmatch(upper, -1) {
		consider(m[1], "keyword", 0.90)
	}
	for _, m := range reKeywordMa.FindAllStringSubmatch(upper, -1) {
		consider(m[1], "keyword", 0.90)
	}
	for _, m := range reBareToken.FindAllStringSubmatch(upper, -1) {
		consider(m[1], "token", 0.60)
	}

	out := make([]Link, 0, len(best))
	for _, l := range best {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// LinkSymbolsFromTitle is LinkSymbolsFromText with prefix "title_".
func LinkSymbolsFromTitle(title string, knownTickers []string) []Link {
	return LinkSymbolsFromText(title, knownTickers, "title_")
}

// LinkSymbolsFromBody is LinkSymbolsFromText with prefix "body_".
func LinkSymbolsFromBody(body string, knownTickers []string) []Link {
	return LinkSymbolsFromText(body, knownTickers, "body_")
}
