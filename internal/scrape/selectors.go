package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector fallback chains: an ordered list of extraction strategies
// per field, tried in sequence until one yields a non-empty result.
// Kept as data, not branching, so chains can be updated when site
// markup drifts.

// firstText returns the text of the first selector in the chain that
// matches a node with non-empty text.
func firstText(sel *goquery.Selection, chain []string) string {
	for _, selector := range chain {
		if text := strings.TrimSpace(sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstDateText behaves like firstText but also accepts a datetime
// attribute, which <time> elements often carry instead of text.
func firstDateText(sel *goquery.Selection, chain []string) string {
	for _, selector := range chain {
		node := sel.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text
		}
		if attr, ok := node.Attr("datetime"); ok && strings.TrimSpace(attr) != "" {
			return strings.TrimSpace(attr)
		}
	}
	return ""
}

// findContainers returns the matches of the first selector in the
// chain that matches anything.
func findContainers(doc *goquery.Document, chain []string) *goquery.Selection {
	for _, selector := range chain {
		if matches := doc.Find(selector); matches.Length() > 0 {
			return matches
		}
	}
	return doc.Selection.Slice(0, 0)
}

var numericRatingRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// firstRating extracts a scalar rating from the first matching element
// in the chain: filled-star count when star markup is present, else the
// first numeric token. Values outside [0, 5] are discarded rather than
// rescaled.
func firstRating(sel *goquery.Selection, chain []string) *float64 {
	for _, selector := range chain {
		node := sel.Find(selector).First()
		if node.Length() == 0 {
			continue
		}

		if filled := node.Find(`.star-filled, [class*="filled"]`); filled.Length() > 0 {
			v := float64(filled.Length())
			if v >= 0 && v <= 5 {
				return &v
			}
			continue
		}

		if m := numericRatingRe.FindStringSubmatch(node.Text()); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil && v >= 0 && v <= 5 {
				return &v
			}
		}
	}
	return nil
}
