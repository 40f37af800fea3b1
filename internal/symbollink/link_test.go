package symbollink

import "testing"

func TestLinkSymbolsFromTitle_Scenario5(t *testing.T) {
	known := []string{"FPT", "HPG", "VNM"}
	got := LinkSymbolsFromTitle("Cổ phiếu FPT tăng mạnh, HPG (HPG) bứt tốc", known)

	byTicker := map[string]Link{}
	for _, l := range got {
		byTicker[l.Ticker] = l
	}

	fpt, ok := byTicker["FPT"]
	if !ok || fpt.Confidence < 0.9 {
		t.Fatalf("expected FPT with confidence >= 0.9, got %+v (present=%v)", fpt, ok)
	}
	hpg, ok := byTicker["HPG"]
	if !ok || hpg.Confidence < 0.9 {
		t.Fatalf("expected HPG with confidence >= 0.9, got %+v (present=%v)", hpg, ok)
	}
	if hpg.Confidence != 0.95 || hpg.Method != "title_paren" {
		t.Fatalf("expected HPG via title_paren at 0.95, got %+v", hpg)
	}
	if _, ok := byTicker["VNM"]; ok {
		t.Fatalf("expected VNM absent, got %+v", byTicker["VNM"])
	}
}

func TestLinkSymbolsFromText_Deterministic(t *testing.T) {
	text := "HOSE: VNM công bố kết quả kinh doanh quý 4, mã CK HPG cũng tăng."
	a := LinkSymbolsFromText(text, nil, "body_")
	b := LinkSymbolsFromText(text, nil, "body_")
	if len(a) != len(b) {
		t.Fatalf("non-deterministic lengths: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic output at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestLinkSymbolsFromText_OrderingConfidenceDescTickerAsc(t *testing.T) {
	text := "ZZZ tăng, AAA tăng, (BBB) dẫn đầu"
	got := LinkSymbolsFromText(text, nil, "body_")
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Confidence < cur.Confidence {
			t.Fatalf("confidence not descending at %d: %+v then %+v", i, prev, cur)
		}
		if prev.Confidence == cur.Confidence && prev.Ticker > cur.Ticker {
			t.Fatalf("ticker not ascending within equal confidence at %d: %+v then %+v", i, prev, cur)
		}
	}
}

func TestLinkSymbolsFromText_StopwordsExcluded(t *testing.T) {
	text := "VNINDEX giảm nhẹ trong phiên, khối ngoại bán ròng qua ETF, giá USD ổn định"
	got := LinkSymbolsFromText(text, nil, "body_")
	for _, l := range got {
		if _, stop := stopwords[l.Ticker]; stop {
			t.Fatalf("stopword %q leaked into output: %+v", l.Ticker, got)
		}
	}
}

func TestLinkSymbolsFromText_KnownTickersFilter(t *testing.T) {
	text := "FPT và HPG cùng tăng điểm hôm nay"
	got := LinkSymbolsFromText(text, []string{"FPT"}, "body_")
	if len(got) != 1 || got[0].Ticker != "FPT" {
		t.Fatalf("expected only FPT with known-ticker filter, got %+v", got)
	}
}

func TestLinkSymbolsFromText_DedupKeepsMaxConfidence(t *testing.T) {
	text := "FPT FPT FPT (FPT)"
	got := LinkSymbolsFromText(text, nil, "body_")
	if len(got) != 1 {
		t.Fatalf("expected a single deduped entry, got %+v", got)
	}
	if got[0].Confidence != 0.95 || got[0].Method != "body_paren" {
		t.Fatalf("expected max confidence 0.95 via paren, got %+v", got[0])
	}
}
