package news

import "testing"

func TestExtractText_GenericFallback(t *testing.T) {
	html := `<html><body><script>bad()</script><p>Thị trường chứng khoán tăng điểm.</p><p>Khối ngoại mua ròng.</p></body></html>`
	text, err := ExtractText(html, "unknown-site.vn")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text == "" {
		t.Fatal("expected non-empty extracted text")
	}
	if WordCount(text) == 0 {
		t.Fatal("expected non-zero word count")
	}
}

func TestExtractText_SiteSpecificSelector(t *testing.T) {
	html := `<html><body><div class="other">noise noise noise</div><div class="detail-content"><p>Nội dung chính của bài báo tài chính.</p></div></body></html>`
	text, err := ExtractText(html, "cafef.vn")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text == "" {
		t.Fatal("expected non-empty text from site-specific selector")
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("one two three"); got != 3 {
		t.Fatalf("WordCount = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Fatalf("WordCount(\"\") = %d, want 0", got)
	}
}

func TestParsePubDate_RFC1123Z(t *testing.T) {
	got := parsePubDate("Mon, 02 Jan 2006 15:04:05 -0700")
	if got == nil {
		t.Fatal("expected parsed time, got nil")
	}
}

func TestParsePubDate_Unparseable(t *testing.T) {
	if got := parsePubDate("not a date"); got != nil {
		t.Fatalf("expected nil for unparseable date, got %v", got)
	}
}
