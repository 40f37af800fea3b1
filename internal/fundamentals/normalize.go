package fundamentals

import (
	"regexp"
	"sort"
	"time"

	"github.com/nkgotcode/vietmarket/internal/database"
)

// metricPattern matches normalized metric keys. Any other key on an item
// (e.g. display-only fields) is passthrough and excluded.
var metricPattern = regexp.MustCompile(`^(is|bs|cf|r|ratio)\d+$`)

var periodDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

func parsePeriodDate(s string) time.Time {
	for _, layout := range periodDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NormalizeBlock extracts numeric metric rows from a fetched block.
// Statement keys present in the block (is, bs, cf, ratio) are each expected
// to hold {"items": [...]}; only keys on each item matching metricPattern
// become rows, with period_date/period_date_name carried onto every row
// derived from that item.
func NormalizeBlock(ticker string, period Period, block map[string]any, fetchedAt time.Time) []database.FIPoint {
	statements := make([]string, 0, len(block))
	for k := range block {
		if statementEndpoints[k] {
			statements = append(statements, k)
		}
	}
	sort.Strings(statements)

	var out []database.FIPoint
	for _, statement := range statements {
		container, ok := block[statement].(map[string]any)
		if !ok {
			continue
		}
		items, ok := container["items"].([]any)
		if !ok {
			continue
		}
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, normalizeItem(ticker, period, statement, item, fetchedAt)...)
		}
	}
	return out
}

func normalizeItem(ticker string, period Period, statement string, item map[string]any, fetchedAt time.Time) []database.FIPoint {
	var periodDate time.Time
	if s, ok := item["periodDate"].(string); ok {
		periodDate = parsePeriodDate(s)
	}
	var periodDateName *string
	if s, ok := item["periodDateName"].(string); ok {
		periodDateName = &s
	}

	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []database.FIPoint
	for _, k := range keys {
		if !metricPattern.MatchString(k) {
			continue
		}
		v, ok := toFloat(item[k])
		if !ok {
			continue
		}
		value := v
		rows = append(rows, database.FIPoint{
			Ticker:         ticker,
			Period:         string(period),
			Statement:      statement,
			PeriodDate:     periodDate,
			PeriodDateName: periodDateName,
			Metric:         k,
			Value:          &value,
			FetchedAt:      fetchedAt,
		})
	}
	return rows
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
