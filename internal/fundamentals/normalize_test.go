package fundamentals

import (
	"testing"
	"time"
)

func TestNormalizeBlock_Scenario6(t *testing.T) {
	block := map[string]any{
		"is": map[string]any{
			"items": []any{
				map[string]any{
					"periodDate":     "2025-12",
					"periodDateName": "Q4/2025",
					"is1":            float64(10),
					"is2":            float64(20),
					"foo":            "bar",
				},
			},
		},
	}

	rows := NormalizeBlock("FPT", PeriodQuarter, block, time.Now())
	if len(rows) != 2 {
		t.Fatalf("expected 2 normalized rows, got %d: %+v", len(rows), rows)
	}

	byMetric := map[string]float64{}
	for _, r := range rows {
		if r.Statement != "is" {
			t.Fatalf("expected statement=is, got %q", r.Statement)
		}
		if r.Value == nil {
			t.Fatalf("expected non-nil value for metric %q", r.Metric)
		}
		byMetric[r.Metric] = *r.Value
	}
	if byMetric["is1"] != 10 || byMetric["is2"] != 20 {
		t.Fatalf("expected is1=10 is2=20, got %+v", byMetric)
	}
	if _, ok := byMetric["foo"]; ok {
		t.Fatal("expected foo to be excluded")
	}
}

func TestNormalizeBlock_MultipleStatementsAndItems(t *testing.T) {
	block := map[string]any{
		"bs": map[string]any{
			"items": []any{
				map[string]any{"periodDate": "2024-12", "bs1": float64(1)},
				map[string]any{"periodDate": "2025-12", "bs1": float64(2)},
			},
		},
		"ratio": map[string]any{
			"items": []any{
				map[string]any{"periodDate": "2025-12", "ratio1": float64(0.5)},
			},
		},
	}
	rows := NormalizeBlock("HPG", PeriodYear, block, time.Now())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
}

func TestNormalizeBlock_IgnoresNonStatementKeys(t *testing.T) {
	block := map[string]any{
		"periodSelect": map[string]any{"items": []any{map[string]any{"is1": float64(5)}}},
	}
	rows := NormalizeBlock("FPT", PeriodQuarter, block, time.Now())
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows from non-statement endpoint, got %d", len(rows))
	}
}
