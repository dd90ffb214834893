package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse HTML: %v", err)
	}
	return doc
}

func TestFirstText_ChainOrder(t *testing.T) {
	doc := docFrom(t, `<div><h4>fallback</h4><h3>primary</h3></div>`)
	sel := doc.Find("div")

	if got := firstText(sel, []string{"h3", "h4"}); got != "primary" {
		t.Errorf("expected first selector to win, got %q", got)
	}
	if got := firstText(sel, []string{".missing", "h4"}); got != "fallback" {
		t.Errorf("expected fallback selector, got %q", got)
	}
	if got := firstText(sel, []string{".missing"}); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestFirstText_SkipsEmptyMatches(t *testing.T) {
	doc := docFrom(t, `<div><h3>   </h3><strong>real title</strong></div>`)
	sel := doc.Find("div")

	if got := firstText(sel, []string{"h3", "strong"}); got != "real title" {
		t.Errorf("expected empty match to be skipped, got %q", got)
	}
}

func TestFirstDateText_DatetimeAttribute(t *testing.T) {
	doc := docFrom(t, `<div><time datetime="2024-06-01"></time></div>`)
	sel := doc.Find("div")

	if got := firstDateText(sel, []string{"time"}); got != "2024-06-01" {
		t.Errorf("expected datetime attribute, got %q", got)
	}
}

func TestFirstRating(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		chain    []string
		expected *float64
	}{
		{
			name:     "filled stars",
			html:     `<div class="stars"><i class="star-filled"></i><i class="star-filled"></i><i class="star-filled"></i><i class="star"></i></div>`,
			chain:    []string{".stars"},
			expected: floatPtr(3),
		},
		{
			name:     "numeric text",
			html:     `<span class="rating">4.5 out of 5</span>`,
			chain:    []string{`[class*="rating"]`},
			expected: floatPtr(4.5),
		},
		{
			name:     "out of range discarded",
			html:     `<span class="rating">9.2</span>`,
			chain:    []string{`[class*="rating"]`},
			expected: nil,
		},
		{
			name:     "no match",
			html:     `<span>no rating here at all</span>`,
			chain:    []string{`[class*="rating"]`},
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := docFrom(t, "<div id='root'>"+tc.html+"</div>")
			got := firstRating(doc.Find("#root"), tc.chain)

			if tc.expected == nil {
				if got != nil {
					t.Errorf("expected no rating, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected rating %v, got nil", *tc.expected)
			}
			if *got != *tc.expected {
				t.Errorf("expected %v, got %v", *tc.expected, *got)
			}
		})
	}
}

func floatPtr(v float64) *float64 { return &v }
