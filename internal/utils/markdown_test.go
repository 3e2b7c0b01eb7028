package utils

import (
	"strings"
	"testing"
	"time"
)

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**Парк** <script>alert(1)</script>"))
	if !strings.Contains(out, "<strong>Парк</strong>") {
		t.Errorf("Expected bold text, got %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("Expected script to be stripped, got %s", out)
	}
}

func TestEnhanceHTMLContent(t *testing.T) {
	out := string(EnhanceHTMLContent(`<p><img src="/a.png"><a href="https://example.com">x</a></p>`))
	if !strings.Contains(out, `loading="lazy"`) {
		t.Errorf("Expected lazy loading attr, got %s", out)
	}
	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("Expected link target, got %s", out)
	}
	if strings.Contains(out, "<body>") {
		t.Errorf("Expected body wrapper to be removed, got %s", out)
	}
}

func TestTimeAgoAndTruncate(t *testing.T) {
	if got := TimeAgo(time.Now().Add(-2 * time.Hour)); got != "2 ч. назад" {
		t.Errorf("TimeAgo = %q", got)
	}
	if got := Truncate("Велодорожка", 4); got != "Вело…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate = %q", got)
	}
}
